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
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/event"
	"github.com/oracle-samples/oci-observability-functions/internal/tagenrich"
	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

type options struct {
	configFile string
	forward    bool

	// loggerOptions are applied to the logger built from LOGGING_LEVEL.
	loggerOptions []zap.Option
	// newSearcher creates the resource searcher for tag-enrich.
	newSearcher func() (tagenrich.Searcher, error)

	cfg    config.Config
	logger *zap.Logger
}

func defaultOptions() *options {
	return &options{
		newSearcher: func() (tagenrich.Searcher, error) {
			return tagenrich.NewConfigFileSearcher()
		},
	}
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oci-local",
		Short: "Run the OCI observability functions locally",
		Long: `oci-local converts events saved from the OCI Logging search (or a raw
Service Connector payload) the way the deployed functions do, prints the result
and optionally forwards it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			if opts.cfg, err = config.LoadFile(opts.configFile); err != nil {
				return err
			}

			opts.logger, err = utility.NewLogger(opts.cfg.LoggingLevel, opts.loggerOptions...)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv(config.ConfigFileEnv), "YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.forward, "forward", false, "Send the converted events to the configured endpoint")

	cmd.AddCommand(
		newDataDogCommand(opts),
		newOtelLogsCommand(opts),
		newOtelMetricsCommand(opts),
		newTagEnrichCommand(opts),
	)

	return cmd
}

func readEvents(file string) (event.Batch, error) {
	contents, err := os.ReadFile(file)
	if err != nil {
		return event.Batch{}, errors.Wrapf(err, "failed to read %s", file)
	}

	return event.FromExport(contents)
}

var indent = &pretty.Options{Width: 80, Prefix: "", Indent: "    "}

func printJSON(w io.Writer, body []byte) error {
	_, err := w.Write(pretty.PrettyOptions(body, indent))
	return err
}
