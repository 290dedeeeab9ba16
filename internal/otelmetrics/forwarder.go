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

package otelmetrics

import (
	"context"

	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/event"
	"github.com/oracle-samples/oci-observability-functions/internal/otlp"
)

// Forwarder assembles the events of an invocation and exports them to the
// collector.
type Forwarder struct {
	assembler *Assembler
	exporter  *otlp.Exporter
	logger    *zap.Logger
}

func NewForwarder(assembler *Assembler, exporter *otlp.Exporter, logger *zap.Logger) *Forwarder {
	return &Forwarder{assembler: assembler, exporter: exporter, logger: logger}
}

// Process forwards batch and returns no response body.
func (f *Forwarder) Process(ctx context.Context, batch event.Batch) ([]byte, error) {
	md, err := f.assembler.Assemble(batch.Events)
	if err != nil {
		return nil, err
	}

	if err = f.exporter.ExportMetrics(ctx, md); err != nil {
		return nil, err
	}
	f.logger.Debug("metrics exported", zap.Int("datapoints", md.DataPointCount()))

	return nil, nil
}
