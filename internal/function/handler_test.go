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

package function

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fdk "github.com/fnproject/fdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/event"
)

func newTestHandler(cfg config.Config, process Processor, opts ...Option) (*Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewHandler(cfg, zap.New(core), process, opts...)
	h.fnName = func(context.Context) string { return "oci-log-otel" }
	return h, logs
}

func TestServe(t *testing.T) {
	var got event.Batch
	h, logs := newTestHandler(config.Default(), func(_ context.Context, batch event.Batch) ([]byte, error) {
		got = batch
		return []byte(`{"ok":true}`), nil
	}, WithContentType("application/json"))

	resp := h.Serve(context.Background(), strings.NewReader(`[{"id": 1}, {"id": 2}]`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, 2, got.Len())

	preamble := logs.FilterMessage("fn oci-log-otel / events 2 / logging level INFO")
	assert.Equal(t, 1, preamble.Len())
}

func TestServeProcessorError(t *testing.T) {
	h, logs := newTestHandler(config.Default(), func(context.Context, event.Batch) ([]byte, error) {
		return nil, errors.New("collector unavailable")
	})

	resp := h.Serve(context.Background(), strings.NewReader(`{"id": 1}`))

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Empty(t, resp.Body)

	failures := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, failures, 1)
	assert.NotContains(t, failures[0].ContextMap(), "trace")
}

func TestServeTracing(t *testing.T) {
	cfg := config.Default()
	cfg.EnableTracing = true

	h, logs := newTestHandler(cfg, func(context.Context, event.Batch) ([]byte, error) {
		return nil, nil
	})

	resp := h.Serve(context.Background(), strings.NewReader(`not json`))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	failures := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].ContextMap()["trace"], "payload is not valid JSON")
}

func TestServeProcessorNotCalledOnBadPayload(t *testing.T) {
	called := false
	h, _ := newTestHandler(config.Default(), func(context.Context, event.Batch) ([]byte, error) {
		called = true
		return nil, nil
	})

	resp := h.Serve(context.Background(), bytes.NewReader([]byte(`42`)))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.False(t, called)
}

func TestServePreamble(t *testing.T) {
	h, logs := newTestHandler(config.Default(), func(context.Context, event.Batch) ([]byte, error) {
		return nil, nil
	}, WithPreamble("forwarding", false))

	h.Serve(context.Background(), strings.NewReader(`{"id": 1}`))

	preamble := logs.FilterMessage("fn oci-log-otel / events 1 / logging level INFO / forwarding false")
	assert.Equal(t, 1, preamble.Len())
}

func TestHandlerFunc(t *testing.T) {
	h, _ := newTestHandler(config.Default(), func(context.Context, event.Batch) ([]byte, error) {
		return []byte(`[{"id": 1}]`), nil
	}, WithContentType("application/json"))

	rec := httptest.NewRecorder()
	h.HandlerFunc()(context.Background(), strings.NewReader(`[{"id": 1}]`), rec)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `[{"id": 1}]`, rec.Body.String())
}

func TestHandlerFuncFailure(t *testing.T) {
	h, _ := newTestHandler(config.Default(), func(context.Context, event.Batch) ([]byte, error) {
		return nil, errors.New("collector unavailable")
	}, WithContentType("application/json"))

	rec := httptest.NewRecorder()
	h.HandlerFunc()(context.Background(), strings.NewReader(`{"id": 1}`), rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Body.String())
}

type fnContext struct {
	fdk.Context
	name string
}

func (c fnContext) FnName() string { return c.name }

func TestHandlerFnNameFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewHandler(config.Default(), zap.New(core), func(context.Context, event.Batch) ([]byte, error) {
		return nil, nil
	})

	ctx := fdk.WithContext(context.Background(), fnContext{name: "oci-tag-enrich"})
	resp := h.Serve(ctx, strings.NewReader(`{"id": 1}`))

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1, logs.FilterMessage("fn oci-tag-enrich / events 1 / logging level INFO").Len())
}
