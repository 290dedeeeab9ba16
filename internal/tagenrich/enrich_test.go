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

package tagenrich

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

const (
	subnetOCID = "ocid1.subnet.oc1.phx.ssssssss"
	vnicOCID   = "ocid1.vnic.oc1.phx.eeeeeeee"
)

type fakeSearcher struct {
	resources map[string][]Resource
	calls     map[string]int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		resources: map[string][]Resource{
			subnetOCID: {{
				Identifier:   subnetOCID,
				FreeformTags: map[string]string{"env": "prod"},
				DefinedTags:  map[string]map[string]interface{}{"Operations": {"CostCenter": "42"}},
			}},
			vnicOCID: {{Identifier: vnicOCID}},
		},
		calls: map[string]int{},
	}
}

func (f *fakeSearcher) Search(_ context.Context, ocid string) ([]Resource, error) {
	f.calls[ocid]++
	return f.resources[ocid], nil
}

func quietLogger(t *testing.T) *zap.Logger {
	t.Helper()

	logger, err := utility.NewLogger("DEBUG", utility.NopCoreLogger()...)
	require.NoError(t, err)
	return logger
}

func testConfig() config.TagEnrich {
	cfg := config.Default().TagEnrich
	cfg.TargetOCIDKeys = []string{"vnicsubnetocid"}
	return cfg
}

func loadPayload(t *testing.T) []byte {
	t.Helper()

	contents, err := os.ReadFile("testdata/vcn_flowlogs.json")
	require.NoError(t, err)
	return contents
}

func TestEnrichList(t *testing.T) {
	searcher := newFakeSearcher()
	e := NewEnricher(testConfig(), searcher, quietLogger(t))

	out, err := e.Enrich(context.Background(), loadPayload(t))
	require.NoError(t, err)

	events := gjson.ParseBytes(out).Array()
	require.Len(t, events, 2)

	for _, ev := range events {
		tags := ev.Get("tags").Array()
		require.Len(t, tags, 1)
		assert.JSONEq(t, `{
			"freeform": {"env": "prod"},
			"defined": {"Operations": {"CostCenter": "42"}},
			"key": "vnicsubnetocid",
			"identifier": "ocid1.subnet.oc1.phx.ssssssss"
		}`, tags[0].Raw)
	}

	// the second event is served from the cache
	assert.Equal(t, 1, searcher.calls[subnetOCID])
}

func TestEnrichKeepsSingleEvent(t *testing.T) {
	e := NewEnricher(testConfig(), newFakeSearcher(), quietLogger(t))

	payload := []byte(gjson.GetBytes(loadPayload(t), "0").Raw)
	out, err := e.Enrich(context.Background(), payload)
	require.NoError(t, err)

	parsed := gjson.ParseBytes(out)
	require.True(t, parsed.IsObject())
	assert.Equal(t, "flow-1", parsed.Get("id").String())
	assert.True(t, parsed.Get("tags").IsArray())
	// indented output
	assert.Contains(t, string(out), "\n    \"id\": \"flow-1\"")
}

func TestEnrichOrder(t *testing.T) {
	cfg := testConfig()
	cfg.OmitEmptyResults = false

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)

	var keys []string
	gjson.GetBytes(out, "tags.0").ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	assert.Equal(t, []string{"freeform", "defined", "system", "key", "identifier"}, keys)
	assert.JSONEq(t, `{}`, gjson.GetBytes(out, "tags.0.system").Raw)
}

func TestEnrichNoTags(t *testing.T) {
	cfg := testConfig()
	cfg.TargetOCIDKeys = []string{"vnicocid"}

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(gjson.GetBytes(loadPayload(t), "0").Raw))
	require.NoError(t, err)

	// no tags means no key / identifier labels either
	assert.JSONEq(t, `[{}]`, gjson.GetBytes(out, "tags").Raw)
}

func TestEnrichExcludedCategories(t *testing.T) {
	cfg := testConfig()
	cfg.IncludeDefined = false

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)

	tag := gjson.GetBytes(out, "tags.0")
	assert.True(t, tag.Get("freeform").Exists())
	assert.False(t, tag.Get("defined").Exists())
}

func TestEnrichMapFormat(t *testing.T) {
	cfg := testConfig()
	cfg.Format = config.FormatMap

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"ocid1.subnet.oc1.phx.ssssssss": {
			"freeform": {"env": "prod"},
			"defined": {"Operations": {"CostCenter": "42"}}
		}
	}`, gjson.GetBytes(out, "tags").Raw)
}

func TestEnrichPositionObject(t *testing.T) {
	cfg := testConfig()
	cfg.PositionKey = "oracle"

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(gjson.GetBytes(loadPayload(t), "0").Raw))
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(out, "tags").Exists())
	assert.Len(t, gjson.GetBytes(out, "oracle.tags").Array(), 1)
}

func TestEnrichPositionObjectWithTags(t *testing.T) {
	cfg := testConfig()
	cfg.PositionKey = "data"

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"data": {"tags": "taken"}, "vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)

	assert.Equal(t, "taken", gjson.GetBytes(out, "data.tags").String())
	assert.Len(t, gjson.GetBytes(out, "tags").Array(), 1)
}

func TestEnrichPositionArray(t *testing.T) {
	cfg := testConfig()
	cfg.PositionKey = "labels"

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"meta": {"labels": ["a"]}, "vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)

	labels := gjson.GetBytes(out, "meta.labels").Array()
	require.Len(t, labels, 2)
	assert.Equal(t, "a", labels[0].String())
	assert.Equal(t, "prod", labels[1].Get("freeform.env").String())
	assert.False(t, gjson.GetBytes(out, "tags").Exists())
}

func TestEnrichPositionNotFound(t *testing.T) {
	cfg := testConfig()
	cfg.PositionKey = "nowhere"

	out, err := NewEnricher(cfg, newFakeSearcher(), quietLogger(t)).EnrichEvent(context.Background(),
		gjson.Parse(`{"vnicsubnetocid": "ocid1.subnet.oc1.phx.ssssssss"}`))
	require.NoError(t, err)
	assert.Len(t, gjson.GetBytes(out, "tags").Array(), 1)
}

func TestEnrichSkipsMissingAndInvalidOCIDs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := testConfig()
	cfg.TargetOCIDKeys = []string{"vcnId", "subnetId"}
	cfg.WarnIfNotFound = true

	out, err := NewEnricher(cfg, newFakeSearcher(), zap.New(core)).EnrichEvent(context.Background(),
		gjson.Parse(`{"subnetId": 42}`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, gjson.GetBytes(out, "tags").Raw)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	assert.Equal(t, zap.ErrorLevel, logs.All()[1].Level)
}

func TestEnrichIdentifierMismatch(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.resources[subnetOCID] = []Resource{{Identifier: "ocid1.subnet.oc1.phx.other"}}

	_, err := NewEnricher(testConfig(), searcher, quietLogger(t)).Enrich(context.Background(), loadPayload(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIdentifierMismatch))
	assert.Contains(t, err.Error(), "event 0")
}

func TestEnrichInvalidPayload(t *testing.T) {
	_, err := NewEnricher(testConfig(), newFakeSearcher(), quietLogger(t)).Enrich(context.Background(), []byte(`"text"`))
	assert.Error(t, err)
}
