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

package event

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/oracle-samples/oci-observability-functions/internal/lookup"
)

var (
	// ErrInvalidPayload is returned for bodies that are not JSON.
	ErrInvalidPayload = errors.New("payload is not valid JSON")

	// ErrUnexpectedPayload is returned for JSON bodies that are neither an event
	// nor a list of events.
	ErrUnexpectedPayload = errors.New("payload is neither an event nor a list of events")
)

// Batch is the set of events delivered in one function invocation.
type Batch struct {
	Events []gjson.Result

	// Single is set when the payload was one event object rather than a list.
	Single bool
}

// Len returns the number of events in the batch.
func (b Batch) Len() int { return len(b.Events) }

// Parse splits a Service Connector payload into its events. A single event
// object is treated as a batch of one.
func Parse(payload []byte) (Batch, error) {
	if !gjson.ValidBytes(payload) {
		return Batch{}, ErrInvalidPayload
	}

	root := gjson.ParseBytes(payload)

	switch {
	case root.IsObject():
		return Batch{Events: []gjson.Result{root}, Single: true}, nil

	case root.IsArray():
		batch := Batch{}
		var err error
		root.ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				err = errors.Wrapf(ErrUnexpectedPayload, "event %d is %s", len(batch.Events), v.Type)
				return false
			}
			batch.Events = append(batch.Events, v)
			return true
		})
		return batch, err
	}

	return Batch{}, errors.Wrapf(ErrUnexpectedPayload, "payload is %s", root.Type)
}

// FromExport reads events from a file saved from the OCI Logging search UI or CLI.
// Search exports wrap each event as results[].data.logContent; anything else is
// handled like a function payload.
func FromExport(contents []byte) (Batch, error) {
	if !gjson.ValidBytes(contents) {
		return Batch{}, ErrInvalidPayload
	}

	root := gjson.ParseBytes(contents)
	results := lookup.Value(root, "results")
	if !results.IsArray() {
		return Parse(contents)
	}

	batch := Batch{}
	results.ForEach(func(_, v gjson.Result) bool {
		if logContent := lookup.Value(v, "logContent"); logContent.IsObject() {
			batch.Events = append(batch.Events, logContent)
		}
		return true
	})

	return batch, nil
}
