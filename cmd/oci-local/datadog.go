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

	"github.com/spf13/cobra"

	"github.com/oracle-samples/oci-observability-functions/internal/datadog"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
)

func newDataDogCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "datadog <file>",
		Short:   "Convert events to DataDog log records",
		Example: "oci-local datadog ./oci_logs.json --forward",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readEvents(args[0])
			if err != nil {
				return err
			}

			records, err := datadog.NewTransformer(opts.cfg.DataDog, opts.logger).TransformAll(batch.Events)
			if err != nil {
				return err
			}

			list := append([]byte{'['}, bytes.Join(records, []byte{','})...)
			if err = printJSON(cmd.OutOrStdout(), append(list, ']')); err != nil {
				return err
			}

			if !opts.forward {
				return nil
			}

			cfg := opts.cfg.DataDog
			cfg.Forward = true
			if err = cfg.Validate(); err != nil {
				return err
			}

			httpClient, err := transport.GetHTTPClient()
			if err != nil {
				return err
			}

			sender := datadog.NewSender(datadog.NewClient(httpClient, cfg), cfg, opts.logger)
			return sender.Send(cmd.Context(), records)
		},
	}
}
