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

// Package otlp serializes OTel data for OTLP/HTTP collectors.
package otlp

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
)

// Encoder marshals logs and metrics in one OTLP encoding.
type Encoder struct {
	contentType string
	logs        plog.Marshaler
	metrics     pmetric.Marshaler
}

// NewEncoder returns the encoder for encoding, config.EncodingJSON or
// config.EncodingProto.
func NewEncoder(encoding string) (*Encoder, error) {
	switch encoding {
	case config.EncodingJSON, "":
		return &Encoder{
			contentType: transport.ContentTypeJSON,
			logs:        &plog.JSONMarshaler{},
			metrics:     &pmetric.JSONMarshaler{},
		}, nil

	case config.EncodingProto:
		return &Encoder{
			contentType: transport.ContentTypeProtobuf,
			logs:        &plog.ProtoMarshaler{},
			metrics:     &pmetric.ProtoMarshaler{},
		}, nil
	}

	return nil, errors.Errorf("unknown OTLP encoding %q", encoding)
}

// ContentType is the HTTP content type of the encoded payloads.
func (e *Encoder) ContentType() string { return e.contentType }

func (e *Encoder) MarshalLogs(ld plog.Logs) ([]byte, error) {
	b, err := e.logs.MarshalLogs(ld)
	return b, errors.Wrap(err, "failed to marshal logs")
}

func (e *Encoder) MarshalMetrics(md pmetric.Metrics) ([]byte, error) {
	b, err := e.metrics.MarshalMetrics(md)
	return b, errors.Wrap(err, "failed to marshal metrics")
}

// Exporter sends OTLP payloads to a collector.
type Exporter struct {
	encoder *Encoder
	client  *transport.Client
}

// NewExporter returns an exporter posting to the collector described by cfg.
func NewExporter(cfg config.Collector, client *transport.Client) (*Exporter, error) {
	encoder, err := NewEncoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	return &Exporter{encoder: encoder, client: client}, nil
}

func (e *Exporter) ExportLogs(ctx context.Context, ld plog.Logs) error {
	body, err := e.encoder.MarshalLogs(ld)
	if err != nil {
		return err
	}

	return e.client.Post(ctx, e.encoder.ContentType(), body)
}

func (e *Exporter) ExportMetrics(ctx context.Context, md pmetric.Metrics) error {
	body, err := e.encoder.MarshalMetrics(md)
	if err != nil {
		return err
	}

	return e.client.Post(ctx, e.encoder.ContentType(), body)
}
