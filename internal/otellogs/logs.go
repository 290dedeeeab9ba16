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

// Package otellogs maps OCI Logging CloudEvents to OpenTelemetry logs.
package otellogs

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/collector/pdata/plog"

	"github.com/oracle-samples/oci-observability-functions/internal/attributes"
	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

const timeKey = "datetime"

// Assembler builds plog.Logs from CloudEvents.
type Assembler struct {
	resourceKeys []string
	scopeKeys    []string
	recordKeys   []string
}

func NewAssembler(cfg config.OtelLogs) *Assembler {
	return &Assembler{
		resourceKeys: cfg.ResourceAttributes,
		scopeKeys:    cfg.ScopeAttributes,
		recordKeys:   cfg.RecordAttributes,
	}
}

// Assemble returns one ResourceLogs per event, each holding a single scope and a
// single log record.
func (a *Assembler) Assemble(events []gjson.Result) (plog.Logs, error) {
	ld := plog.NewLogs()
	for i, ev := range events {
		if err := a.appendResourceLogs(ld.ResourceLogs().AppendEmpty(), ev); err != nil {
			return plog.Logs{}, errors.Wrapf(err, "event %d", i)
		}
	}

	return ld, nil
}

func (a *Assembler) appendResourceLogs(rl plog.ResourceLogs, ev gjson.Result) error {
	if err := attributes.Assemble(rl.Resource().Attributes(), ev, a.resourceKeys); err != nil {
		return errors.Wrap(err, "resource attributes")
	}

	sl := rl.ScopeLogs().AppendEmpty()
	if err := attributes.Assemble(sl.Scope().Attributes(), ev, a.scopeKeys); err != nil {
		return errors.Wrap(err, "scope attributes")
	}

	record := sl.LogRecords().AppendEmpty()
	record.SetTimestamp(attributes.Timestamp(lookup.Value(ev, timeKey)))
	record.SetObservedTimestamp(0)
	if err := attributes.Assemble(record.Attributes(), ev, a.recordKeys); err != nil {
		return errors.Wrap(err, "log record attributes")
	}

	return nil
}
