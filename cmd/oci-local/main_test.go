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

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/oracle-samples/oci-observability-functions/internal/tagenrich"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

type staticSearcher map[string][]tagenrich.Resource

func (s staticSearcher) Search(_ context.Context, ocid string) ([]tagenrich.Resource, error) {
	return s[ocid], nil
}

func testOptions() *options {
	return &options{
		loggerOptions: utility.NopCoreLogger(),
		newSearcher: func() (tagenrich.Searcher, error) {
			return staticSearcher{
				"ocid1.compartment.oc1..aaa": {{
					Identifier:   "ocid1.compartment.oc1..aaa",
					FreeformTags: map[string]string{"team": "network"},
				}},
			}, nil
		},
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand(testOptions())
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestDataDogCommand(t *testing.T) {
	out, err := run(t, "datadog", "testdata/search_export.json")
	require.NoError(t, err)

	records := gjson.Parse(out).Array()
	require.Len(t, records, 2)
	assert.Equal(t, "com.oraclecloud.vcn.flowlogs.DataEvent", records[0].Get("ddsource").String())
	assert.Equal(t, "log-2", records[1].Get("oci.id").String())
}

func TestDataDogCommandForward(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	t.Setenv("DATADOG_LOGGING_API_ENDPOINT", srv.URL)
	t.Setenv("DATADOG_API_KEY", "secret")

	_, err := run(t, "datadog", "testdata/search_export.json", "--forward")
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestOtelLogsCommand(t *testing.T) {
	out, err := run(t, "otel-logs", "testdata/search_export.json")
	require.NoError(t, err)
	assert.Len(t, gjson.Get(out, "resourceLogs").Array(), 2)
}

func TestOtelLogsCommandForwardNotConfigured(t *testing.T) {
	_, err := run(t, "otel-logs", "testdata/search_export.json", "--forward")
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "otel-metrics", "testdata/missing.json")
	assert.Error(t, err)
}

func TestRequiresFile(t *testing.T) {
	_, err := run(t, "datadog")
	assert.Error(t, err)
}

func TestOtelMetricsCommand(t *testing.T) {
	out, err := run(t, "otel-metrics", "testdata/oci_metrics.json")
	require.NoError(t, err)

	resources := gjson.Get(out, "resourceMetrics").Array()
	require.Len(t, resources, 2)
	assert.Equal(t, "VnicEgressDropsConntrackFull", resources[0].Get("scopeMetrics.0.metrics.1.name").String())
}

func TestOtelMetricsCommandForward(t *testing.T) {
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	t.Setenv("OTEL_COLLECTOR_METRICS_API_ENDPOINT", srv.URL)
	t.Setenv("OTEL_COLLECTOR_METRICS_ENCODING", "proto")

	_, err := run(t, "otel-metrics", "testdata/oci_metrics.json", "--forward")
	require.NoError(t, err)
	assert.Equal(t, "application/x-protobuf", contentType)
}

func TestTagEnrichCommand(t *testing.T) {
	t.Setenv("TARGET_OCID_KEYS", "compartmentid")

	out, err := run(t, "tag-enrich", "testdata/search_export.json")
	require.NoError(t, err)

	events := gjson.Parse(out).Array()
	require.Len(t, events, 2)
	assert.Equal(t, "network", events[0].Get("tags.0.freeform.team").String())
	assert.Equal(t, "compartmentid", events[0].Get("tags.0.key").String())
	// the second event has no compartment
	assert.JSONEq(t, `[]`, events[1].Get("tags").Raw)
}

func TestTagEnrichCommandInvalidConfig(t *testing.T) {
	t.Setenv("TAG_ASSEMBLY_FORMAT", "xml")

	_, err := run(t, "tag-enrich", "testdata/search_export.json")
	assert.Error(t, err)
}
