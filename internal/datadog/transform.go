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

// Package datadog maps OCI Logging CloudEvents to the DataDog logs intake format.
//
// See:
//
//	https://docs.datadoghq.com/api/latest/logs/#send-logs
//	https://docs.datadoghq.com/getting_started/tagging/
//	https://github.com/cloudevents/spec/blob/v1.0/json-format.md
package datadog

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

// Reserved attributes of a DataDog log record.
const (
	SourceAttr   = "ddsource"
	ServiceAttr  = "service"
	HostnameAttr = "hostname"
	MessageAttr  = "message"
	TagsAttr     = "ddtags"
)

// Transformer converts CloudEvents into DataDog log records.
type Transformer struct {
	cfg    config.DataDog
	logger *zap.Logger
}

func NewTransformer(cfg config.DataDog, logger *zap.Logger) *Transformer {
	return &Transformer{cfg: cfg, logger: logger}
}

// Transform returns the DataDog record for ev as JSON. Reserved attributes whose
// keys are missing from the event are null; the event itself is copied under the
// configured log key.
func (t *Transformer) Transform(ev gjson.Result) ([]byte, error) {
	fields := []struct {
		name string
		raw  string
	}{
		{SourceAttr, rawOrNull(lookup.Value(ev, t.cfg.Source))},
		{ServiceAttr, rawOrNull(lookup.Value(ev, t.cfg.Service))},
		{HostnameAttr, rawOrNull(lookup.Value(ev, t.cfg.Hostname))},
		{MessageAttr, rawOrNull(lookup.Value(ev, t.cfg.Message))},
		{TagsAttr, quote(t.Tags(ev))},
		{t.cfg.LogKey, ev.Raw},
	}

	record := []byte(`{}`)
	for _, f := range fields {
		var err error
		record, err = sjson.SetRawBytes(record, lookup.EscapeKey(f.name), []byte(f.raw))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to set %s", f.name)
		}
	}

	return record, nil
}

// TransformAll converts every event of a batch.
func (t *Transformer) TransformAll(events []gjson.Result) ([][]byte, error) {
	records := make([][]byte, 0, len(events))
	for i, ev := range events {
		record, err := t.Transform(ev)
		if err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		t.logger.Debug("transformed event", zap.ByteString("record", record))
		records = append(records, record)
	}

	return records, nil
}

// Tags builds the ddtags string: a comma separated list of key:value pairs, one for
// every configured tag key found in the event. Values that contain a ':' would
// break the DataDog tag syntax and are skipped.
func (t *Transformer) Tags(ev gjson.Result) string {
	tags := make([]string, 0, len(t.cfg.TagKeys))
	for _, key := range t.cfg.TagKeys {
		value, found := lookup.Find(ev, key)
		if !found {
			continue
		}

		s := value.Value.String()
		if value.Value.Type == gjson.String && strings.Contains(s, ":") {
			t.logger.Warn("ddtag contains a ':' / ignoring", zap.String("key", key), zap.String("value", s))
			continue
		}

		tags = append(tags, key+":"+s)
	}

	return strings.Join(tags, ",")
}

func rawOrNull(v gjson.Result) string {
	if !v.Exists() {
		return "null"
	}

	return v.Raw
}

func quote(s string) string {
	raw, _ := sjson.Set(`{}`, "v", s)
	return gjson.Get(raw, "v").Raw
}
