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

// Package function adapts the observability processors to the Fn runtime used by
// OCI Functions.
package function

import (
	"context"
	"fmt"
	"io"
	"net/http"

	fdk "github.com/fnproject/fdk-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/event"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

// Processor handles the events of one invocation and returns the response body.
// A nil body means an empty response.
type Processor func(ctx context.Context, batch event.Batch) ([]byte, error)

// Response is what the function answers to the Service Connector.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Handler struct {
	process       Processor
	logger        *zap.Logger
	loggingLevel  string
	enableTracing bool
	contentType   string
	preamble      string

	// fnName reports the name of the invoked function.
	fnName func(ctx context.Context) string
}

// Option configures a Handler.
type Option func(*Handler)

// WithContentType sets the Content-Type of successful responses.
func WithContentType(contentType string) Option {
	return func(h *Handler) {
		h.contentType = contentType
	}
}

// WithPreamble appends "/ label value" to the line logged for every invocation.
func WithPreamble(label string, value interface{}) Option {
	return func(h *Handler) {
		h.preamble += fmt.Sprintf(" / %s %v", label, value)
	}
}

func NewHandler(cfg config.Config, logger *zap.Logger, process Processor, opts ...Option) *Handler {
	h := &Handler{
		process:       process,
		logger:        logger,
		loggingLevel:  cfg.LoggingLevel,
		enableTracing: cfg.EnableTracing,
		fnName: func(ctx context.Context) string {
			return fdk.GetContext(ctx).FnName()
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Serve runs the processor on the payload read from in.
func (h *Handler) Serve(ctx context.Context, in io.Reader) Response {
	name := h.fnName(ctx)

	payload, err := io.ReadAll(in)
	if err != nil {
		return h.fail(name, errors.Wrap(err, "failed to read payload"))
	}

	batch, err := event.Parse(payload)
	if err != nil {
		return h.fail(name, err)
	}

	h.logger.Info(fmt.Sprintf("fn %s / events %d / logging level %s%s", name, batch.Len(), h.loggingLevel, h.preamble))

	body, err := h.process(ctx, batch)
	if err != nil {
		return h.fail(name, err)
	}

	return Response{Status: http.StatusOK, ContentType: h.contentType, Body: body}
}

func (h *Handler) fail(name string, err error) Response {
	utility.LogError(err, "Invoke", "Failed to handle function payload", utility.KeyValue{K: "fn", V: name})

	fields := []zap.Field{zap.String("fn", name), zap.Error(err)}
	if h.enableTracing {
		fields = append(fields, zap.String("trace", fmt.Sprintf("%+v", err)))
	}
	h.logger.Error("error handling function payload", fields...)

	return Response{Status: http.StatusInternalServerError}
}

// HandlerFunc returns the handler in the form expected by fdk.Handle.
func (h *Handler) HandlerFunc() fdk.HandlerFunc {
	return func(ctx context.Context, in io.Reader, out io.Writer) {
		resp := h.Serve(ctx, in)

		if resp.ContentType != "" {
			fdk.SetHeader(out, "Content-Type", resp.ContentType)
		}
		fdk.WriteStatus(out, resp.Status)

		if len(resp.Body) > 0 {
			if _, err := out.Write(resp.Body); err != nil {
				utility.LogError(err, "Invoke", "Failed to write function response")
			}
		}
	}
}
