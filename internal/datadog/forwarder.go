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

package datadog

import (
	"context"

	"github.com/oracle-samples/oci-observability-functions/internal/event"
)

// Forwarder transforms the events of an invocation and sends them to DataDog.
type Forwarder struct {
	transformer *Transformer
	sender      *Sender
}

func NewForwarder(transformer *Transformer, sender *Sender) *Forwarder {
	return &Forwarder{transformer: transformer, sender: sender}
}

// Process forwards batch and returns no response body.
func (f *Forwarder) Process(ctx context.Context, batch event.Batch) ([]byte, error) {
	records, err := f.transformer.TransformAll(batch.Events)
	if err != nil {
		return nil, err
	}

	return nil, f.sender.Send(ctx, records)
}
