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

// Package otelmetrics maps OCI Monitoring metric events to OpenTelemetry gauges.
//
// An OCI metric event looks like:
//
//	{
//	  "namespace": "oci_vcn",
//	  "resourceGroup": null,
//	  "compartmentId": "ocid1.compartment.oc1...",
//	  "name": "VnicEgressDropsConntrackFull",
//	  "dimensions": {"resourceId": "ocid1.vnic.oc1.phx..."},
//	  "metadata": {"displayName": "Egress Packets Dropped by Full Connection Tracking Table", "unit": "packets"},
//	  "datapoints": [{"timestamp": 1652196492000, "value": 0.0, "count": 1}]
//	}
package otelmetrics

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/oracle-samples/oci-observability-functions/internal/attributes"
	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

const (
	nameKey        = "name"
	displayNameKey = "displayName"
	unitKey        = "unit"
	datapointsKey  = "datapoints"
	timestampKey   = "timestamp"
	valueKey       = "value"
)

// ErrMissingDatapoints is returned for metric events without a datapoints list.
var ErrMissingDatapoints = errors.New("metric event has no datapoints list")

type Assembler struct {
	resourceKeys  []string
	scopeKeys     []string
	datapointKeys []string
}

func NewAssembler(cfg config.OtelMetrics) *Assembler {
	return &Assembler{
		resourceKeys:  cfg.ResourceAttributes,
		scopeKeys:     cfg.ScopeAttributes,
		datapointKeys: cfg.DataPointAttributes,
	}
}

// Assemble returns one ResourceMetrics per event. Every OCI datapoint becomes its
// own gauge metric holding a single data point.
func (a *Assembler) Assemble(events []gjson.Result) (pmetric.Metrics, error) {
	md := pmetric.NewMetrics()
	for i, ev := range events {
		if err := a.appendResourceMetrics(md.ResourceMetrics().AppendEmpty(), ev); err != nil {
			return pmetric.Metrics{}, errors.Wrapf(err, "event %d", i)
		}
	}

	return md, nil
}

func (a *Assembler) appendResourceMetrics(rm pmetric.ResourceMetrics, ev gjson.Result) error {
	if err := attributes.Assemble(rm.Resource().Attributes(), ev, a.resourceKeys); err != nil {
		return errors.Wrap(err, "resource attributes")
	}

	sm := rm.ScopeMetrics().AppendEmpty()
	if err := attributes.Assemble(sm.Scope().Attributes(), ev, a.scopeKeys); err != nil {
		return errors.Wrap(err, "scope attributes")
	}

	name := lookup.Value(ev, nameKey).String()
	description := lookup.Value(ev, displayNameKey).String()
	unit := lookup.Value(ev, unitKey).String()

	datapoints := lookup.Value(ev, datapointsKey)
	if !datapoints.IsArray() {
		return errors.Wrapf(ErrMissingDatapoints, "metric %s", name)
	}

	var err error
	datapoints.ForEach(func(_, dp gjson.Result) bool {
		metric := sm.Metrics().AppendEmpty()
		metric.SetName(name)
		metric.SetDescription(description)
		metric.SetUnit(unit)

		point := metric.SetEmptyGauge().DataPoints().AppendEmpty()
		if err = attributes.Assemble(point.Attributes(), dp, a.datapointKeys); err != nil {
			err = errors.Wrapf(err, "datapoint attributes of %s", name)
			return false
		}

		ts := attributes.Timestamp(dp.Get(timestampKey))
		point.SetStartTimestamp(ts)
		point.SetTimestamp(ts)
		point.SetDoubleValue(dp.Get(valueKey).Float())
		return true
	})

	return err
}
