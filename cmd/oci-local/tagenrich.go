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

	"github.com/oracle-samples/oci-observability-functions/internal/tagenrich"
)

func newTagEnrichCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tag-enrich <file>",
		Short: "Add resource tags to events",
		Long: `tag-enrich looks up the tags of the resources referenced by each event
using the credentials of the default OCI CLI profile (~/.oci/config).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.TagEnrich.Validate(); err != nil {
				return err
			}

			batch, err := readEvents(args[0])
			if err != nil {
				return err
			}

			searcher, err := opts.newSearcher()
			if err != nil {
				return err
			}

			out, err := tagenrich.NewEnricher(opts.cfg.TagEnrich, searcher, opts.logger).EnrichBatch(cmd.Context(), batch)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
