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

// Command oci-metrics-otel is an OCI Functions task that converts OCI Monitoring metric
// events to OpenTelemetry gauges and posts them to an OTLP/HTTP collector.
package main

import (
	"os"

	fdk "github.com/fnproject/fdk-go"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/function"
	"github.com/oracle-samples/oci-observability-functions/internal/otelmetrics"
	"github.com/oracle-samples/oci-observability-functions/internal/otlp"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.OtelMetrics.Validate()
	}
	if err != nil {
		utility.LogError(err, "LoadConfig", "Invalid function configuration")
		os.Exit(1)
	}

	logger, err := utility.NewLogger(cfg.LoggingLevel)
	if err != nil {
		utility.LogError(err, "NewLogger", "Failed to create logger")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	httpClient, err := transport.GetHTTPClient()
	if err != nil {
		os.Exit(1)
	}

	exporter, err := otlp.NewExporter(cfg.OtelMetrics.Collector, transport.NewClient(httpClient, cfg.OtelMetrics.Endpoint))
	if err != nil {
		utility.LogError(err, "NewExporter", "Failed to create OTLP exporter")
		os.Exit(1)
	}

	forwarder := otelmetrics.NewForwarder(otelmetrics.NewAssembler(cfg.OtelMetrics), exporter, logger)

	fdk.Handle(function.NewHandler(cfg, logger, forwarder.Process).HandlerFunc())
}
