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
	"github.com/spf13/cobra"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/otellogs"
	"github.com/oracle-samples/oci-observability-functions/internal/otelmetrics"
	"github.com/oracle-samples/oci-observability-functions/internal/otlp"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
)

func newExporter(cfg config.Collector) (*otlp.Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient, err := transport.GetHTTPClient()
	if err != nil {
		return nil, err
	}

	return otlp.NewExporter(cfg, transport.NewClient(httpClient, cfg.Endpoint))
}

func newOtelLogsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "otel-logs <file>",
		Short: "Convert events to OTLP logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readEvents(args[0])
			if err != nil {
				return err
			}

			ld, err := otellogs.NewAssembler(opts.cfg.OtelLogs).Assemble(batch.Events)
			if err != nil {
				return err
			}

			encoder, err := otlp.NewEncoder(config.EncodingJSON)
			if err != nil {
				return err
			}
			body, err := encoder.MarshalLogs(ld)
			if err != nil {
				return err
			}
			if err = printJSON(cmd.OutOrStdout(), body); err != nil {
				return err
			}

			if !opts.forward {
				return nil
			}

			exporter, err := newExporter(opts.cfg.OtelLogs.Collector)
			if err != nil {
				return err
			}

			return exporter.ExportLogs(cmd.Context(), ld)
		},
	}
}

func newOtelMetricsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "otel-metrics <file>",
		Short: "Convert metric events to OTLP gauges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readEvents(args[0])
			if err != nil {
				return err
			}

			md, err := otelmetrics.NewAssembler(opts.cfg.OtelMetrics).Assemble(batch.Events)
			if err != nil {
				return err
			}

			encoder, err := otlp.NewEncoder(config.EncodingJSON)
			if err != nil {
				return err
			}
			body, err := encoder.MarshalMetrics(md)
			if err != nil {
				return err
			}
			if err = printJSON(cmd.OutOrStdout(), body); err != nil {
				return err
			}

			if !opts.forward {
				return nil
			}

			exporter, err := newExporter(opts.cfg.OtelMetrics.Collector)
			if err != nil {
				return err
			}

			return exporter.ExportMetrics(cmd.Context(), md)
		},
	}
}
