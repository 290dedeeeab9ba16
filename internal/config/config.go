// Copyright The OpenTelemetry Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the settings of every function. OCI Functions deliver
// application and function configuration as environment variables; a YAML file
// named by FUNCTION_CONFIG_FILE may provide a base that the environment overrides.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	// NotConfigured is the placeholder endpoint value used when none was set.
	NotConfigured = "not-configured"

	EncodingJSON  = "json"
	EncodingProto = "proto"

	FormatList = "list"
	FormatMap  = "map"

	ConfigFileEnv = "FUNCTION_CONFIG_FILE"
)

type Config struct {
	LoggingLevel  string `yaml:"logging_level"`
	EnableTracing bool   `yaml:"enable_tracing"`

	DataDog     DataDog     `yaml:"datadog"`
	OtelLogs    OtelLogs    `yaml:"otel_logs"`
	OtelMetrics OtelMetrics `yaml:"otel_metrics"`
	TagEnrich   TagEnrich   `yaml:"tag_enrich"`
}

// DataDog configures the OCI Logging to DataDog function.
type DataDog struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	Forward   bool   `yaml:"forward"`
	BatchSize int    `yaml:"batch_size"`

	// Event keys looked up for the DataDog reserved attributes.
	Source   string `yaml:"ddsource"`
	Service  string `yaml:"ddservice"`
	Hostname string `yaml:"ddhostname"`
	Message  string `yaml:"ddmessage"`

	// LogKey is the key the whole event is copied under.
	LogKey  string   `yaml:"ddlog"`
	TagKeys []string `yaml:"ddtag_keys"`
}

// Collector is an OTLP/HTTP endpoint.
type Collector struct {
	Endpoint string `yaml:"endpoint"`
	Encoding string `yaml:"encoding"`
}

type OtelLogs struct {
	Collector `yaml:",inline"`

	ResourceAttributes []string `yaml:"resource_attributes"`
	ScopeAttributes    []string `yaml:"scope_attributes"`
	RecordAttributes   []string `yaml:"record_attributes"`
}

type OtelMetrics struct {
	Collector `yaml:",inline"`

	ResourceAttributes  []string `yaml:"resource_attributes"`
	ScopeAttributes     []string `yaml:"scope_attributes"`
	DataPointAttributes []string `yaml:"datapoint_attributes"`
}

// TagEnrich configures the tag enrichment task.
type TagEnrich struct {
	TargetOCIDKeys []string `yaml:"target_ocid_keys"`
	WarnIfNotFound bool     `yaml:"target_ocid_keys_warn_if_not_found"`

	AssemblyKey      string `yaml:"tag_assembly_key"`
	PositionKey      string `yaml:"tag_position_key"`
	OmitEmptyResults bool   `yaml:"tag_assembly_omit_empty_results"`
	Format           string `yaml:"tag_assembly_format"`

	IncludeFreeform bool `yaml:"include_freeform_tags"`
	IncludeDefined  bool `yaml:"include_defined_tags"`
	IncludeSystem   bool `yaml:"include_system_tags"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LoggingLevel: "INFO",
		DataDog: DataDog{
			Endpoint:  NotConfigured,
			APIKey:    NotConfigured,
			BatchSize: 1,
			Source:    "type",
			Service:   "source",
			Hostname:  "hostname",
			Message:   "message",
			LogKey:    "oci",
		},
		OtelLogs: OtelLogs{
			Collector:          Collector{Endpoint: NotConfigured, Encoding: EncodingJSON},
			ResourceAttributes: []string{"source", "time", "oracle"},
			ScopeAttributes:    []string{"type"},
			RecordAttributes:   []string{"id", "data", "datetime"},
		},
		OtelMetrics: OtelMetrics{
			Collector:           Collector{Endpoint: NotConfigured, Encoding: EncodingJSON},
			ResourceAttributes:  []string{"dimensions", "compartmentId", "resourceGroup"},
			ScopeAttributes:     []string{"namespace"},
			DataPointAttributes: []string{"count"},
		},
		TagEnrich: TagEnrich{
			TargetOCIDKeys:   []string{"compartmentId", "vcnId", "subnetId", "vnicId", "vnicsubnetocid"},
			AssemblyKey:      "tags",
			OmitEmptyResults: true,
			Format:           FormatList,
			IncludeFreeform:  true,
			IncludeDefined:   true,
			IncludeSystem:    true,
		},
	}
}

// Load builds the configuration from the defaults, the optional YAML file named by
// FUNCTION_CONFIG_FILE and the environment, in that order of precedence.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit YAML file. An empty path skips the file.
func LoadFile(file string) (Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return cfg, errors.Wrapf(err, "failed to read config file %s", file)
		}

		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "failed to unmarshal config file %s", file)
		}
	}

	err := cfg.applyEnv()
	return cfg, err
}

func (c *Config) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	lookupString("LOGGING_LEVEL", &c.LoggingLevel)
	collect(lookupBool("ENABLE_TRACING", &c.EnableTracing))

	dd := &c.DataDog
	lookupString("DATADOG_LOGGING_API_ENDPOINT", &dd.Endpoint)
	lookupString("DATADOG_API_KEY", &dd.APIKey)
	collect(lookupBool("FORWARD_TO_DATADOG", &dd.Forward))
	collect(lookupInt("DATADOG_BATCH_SIZE", &dd.BatchSize))
	lookupString("DDSOURCE", &dd.Source)
	lookupString("DDSERVICE", &dd.Service)
	lookupString("DDHOSTNAME", &dd.Hostname)
	lookupString("DDMESSAGE", &dd.Message)
	lookupString("DDLOG", &dd.LogKey)
	lookupList("DDTAG_KEYS", ",", &dd.TagKeys)

	// OTEL_COLLECTOR_ENCODING applies to both collectors, the per signal variables win.
	lookupString("OTEL_COLLECTOR_ENCODING", &c.OtelLogs.Encoding)
	lookupString("OTEL_COLLECTOR_ENCODING", &c.OtelMetrics.Encoding)

	logs := &c.OtelLogs
	lookupString("OTEL_COLLECTOR_LOGS_API_ENDPOINT", &logs.Endpoint)
	lookupString("OTEL_COLLECTOR_LOGS_ENCODING", &logs.Encoding)
	lookupList("LOG_RESOURCE_ATTRIBUTES", " ", &logs.ResourceAttributes)
	lookupList("LOG_SCOPE_ATTRIBUTES", " ", &logs.ScopeAttributes)
	lookupList("LOG_RECORD_ATTRIBUTES", " ", &logs.RecordAttributes)

	metrics := &c.OtelMetrics
	lookupString("OTEL_COLLECTOR_METRICS_API_ENDPOINT", &metrics.Endpoint)
	lookupString("OTEL_COLLECTOR_METRICS_ENCODING", &metrics.Encoding)
	lookupList("METRICS_RESOURCE_ATTRIBUTES", " ", &metrics.ResourceAttributes)
	lookupList("METRICS_SCOPE_ATTRIBUTES", " ", &metrics.ScopeAttributes)
	lookupList("METRICS_DATAPOINT_ATTRIBUTES", " ", &metrics.DataPointAttributes)

	tags := &c.TagEnrich
	lookupList("TARGET_OCID_KEYS", ",", &tags.TargetOCIDKeys)
	collect(lookupBool("TARGET_OCID_KEYS_WARN_IF_NOT_FOUND", &tags.WarnIfNotFound))
	lookupString("TAG_ASSEMBLY_KEY", &tags.AssemblyKey)
	lookupString("TAG_POSITION_KEY", &tags.PositionKey)
	collect(lookupBool("TAG_ASSEMBLY_OMIT_EMPTY_RESULTS", &tags.OmitEmptyResults))
	lookupString("TAG_ASSEMBLY_FORMAT", &tags.Format)
	collect(lookupBool("INCLUDE_FREEFORM_TAGS", &tags.IncludeFreeform))
	collect(lookupBool("INCLUDE_DEFINED_TAGS", &tags.IncludeDefined))
	collect(lookupBool("INCLUDE_SYSTEM_TAGS", &tags.IncludeSystem))

	return multierr.Combine(errs...)
}

// Validate checks the DataDog settings. Endpoint and key only matter when
// forwarding is on.
func (d DataDog) Validate() error {
	var errs []error
	if d.Forward {
		if !configured(d.Endpoint) {
			errs = append(errs, errors.New("DATADOG_LOGGING_API_ENDPOINT is required when forwarding"))
		}
		if !configured(d.APIKey) {
			errs = append(errs, errors.New("DATADOG_API_KEY is required when forwarding"))
		}
	}
	if d.BatchSize < 1 {
		errs = append(errs, errors.Errorf("DATADOG_BATCH_SIZE must be at least 1, got %d", d.BatchSize))
	}
	if d.LogKey == "" {
		errs = append(errs, errors.New("DDLOG must not be empty"))
	}

	return multierr.Combine(errs...)
}

// Validate checks an OTLP collector endpoint.
func (c Collector) Validate() error {
	var errs []error
	if !configured(c.Endpoint) {
		errs = append(errs, errors.New("collector endpoint is not configured"))
	}
	if c.Encoding != EncodingJSON && c.Encoding != EncodingProto {
		errs = append(errs, errors.Errorf("unknown collector encoding %q", c.Encoding))
	}

	return multierr.Combine(errs...)
}

// Validate checks the tag enrichment settings.
func (t TagEnrich) Validate() error {
	var errs []error
	if t.AssemblyKey == "" {
		errs = append(errs, errors.New("TAG_ASSEMBLY_KEY must not be empty"))
	}
	if t.Format != FormatList && t.Format != FormatMap {
		errs = append(errs, errors.Errorf("unknown TAG_ASSEMBLY_FORMAT %q", t.Format))
	}

	return multierr.Combine(errs...)
}

func configured(endpoint string) bool {
	return endpoint != "" && endpoint != NotConfigured
}

func lookupString(name string, dest *string) {
	if val, ok := os.LookupEnv(name); ok {
		*dest = strings.TrimSpace(val)
	}
}

// lookupBool parses with strconv.ParseBool, which also accepts True and False.
func lookupBool(name string, dest *bool) error {
	val, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return errors.Wrapf(err, "invalid boolean for %s", name)
	}

	*dest = b
	return nil
}

func lookupInt(name string, dest *int) error {
	val, ok := os.LookupEnv(name)
	if !ok {
		return nil
	}

	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return errors.Wrapf(err, "invalid integer for %s", name)
	}

	*dest = i
	return nil
}

// lookupList splits a list variable on sep, dropping blanks and duplicates while
// keeping the configured order.
func lookupList(name, sep string, dest *[]string) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}

	*dest = SplitList(val, sep)
}

// SplitList splits s on sep, trims the entries, and drops blanks and duplicates.
func SplitList(s, sep string) []string {
	var parts []string
	if sep == " " {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, sep)
	}

	seen := make(map[string]struct{}, len(parts))
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		list = append(list, p)
	}

	return list
}
