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

// Command oci-tag-enrich is an OCI Functions task for Service Connector Hub. It
// adds the tags of the resources referenced by each event to the event and hands
// the enriched events back to the connector.
package main

import (
	"os"

	fdk "github.com/fnproject/fdk-go"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/function"
	"github.com/oracle-samples/oci-observability-functions/internal/tagenrich"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.TagEnrich.Validate()
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

	searcher, err := tagenrich.NewResourcePrincipalSearcher()
	if err != nil {
		utility.LogError(err, "NewSearcher", "Failed to create resource search client")
		os.Exit(1)
	}

	enricher := tagenrich.NewEnricher(cfg.TagEnrich, searcher, logger)
	handler := function.NewHandler(cfg, logger, enricher.EnrichBatch,
		function.WithContentType(transport.ContentTypeJSON))

	fdk.Handle(handler.HandlerFunc())
}
