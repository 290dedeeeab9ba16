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
	"bytes"
	"context"
	"net/http"

	"github.com/golang-collections/go-datastructures/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/oracle-samples/oci-observability-functions/internal/config"
	"github.com/oracle-samples/oci-observability-functions/internal/transport"
)

const apiKeyHeader = "DD-API-KEY"

// Sender forwards DataDog records to the logs intake.
type Sender struct {
	client    *transport.Client
	forward   bool
	batchSize int64
	logger    *zap.Logger
}

// NewClient returns a transport client set up for the DataDog logs intake.
func NewClient(httpClient *http.Client, cfg config.DataDog) *transport.Client {
	return transport.NewClient(httpClient, cfg.Endpoint,
		transport.WithHeader(apiKeyHeader, cfg.APIKey),
		transport.WithAcceptedStatus(http.StatusAccepted, http.StatusOK))
}

func NewSender(client *transport.Client, cfg config.DataDog, logger *zap.Logger) *Sender {
	batchSize := int64(cfg.BatchSize)
	if batchSize < 1 {
		batchSize = 1
	}

	return &Sender{
		client:    client,
		forward:   cfg.Forward,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Send posts the records, batchSize records per request. With a batch size of one
// each record is posted on its own as a JSON object; larger batches are posted as
// JSON arrays. The first failed request aborts the send.
func (s *Sender) Send(ctx context.Context, records [][]byte) error {
	if !s.forward {
		s.logger.Debug("DataDog forwarding is disabled - nothing sent", zap.Int("records", len(records)))
		return nil
	}

	q := queue.New(int64(len(records)))
	defer q.Dispose()

	for _, record := range records {
		if err := q.Put(record); err != nil {
			return errors.Wrap(err, "failed to queue record")
		}
	}

	for !q.Empty() {
		items, err := q.Get(s.batchSize)
		if err != nil {
			return errors.Wrap(err, "failed to get records from queue")
		}

		body, err := s.body(items)
		if err != nil {
			return err
		}

		if err = s.client.Post(ctx, transport.ContentTypeJSON, body); err != nil {
			return errors.Wrap(err, "error sending to DataDog")
		}
		s.logger.Debug("sent to DataDog", zap.Int("records", len(items)))
	}

	return nil
}

func (s *Sender) body(items []interface{}) ([]byte, error) {
	records := make([][]byte, 0, len(items))
	for _, item := range items {
		record, ok := item.([]byte)
		if !ok {
			return nil, errors.Errorf("unexpected item in queue: %T", item)
		}
		records = append(records, record)
	}

	if s.batchSize == 1 {
		return records[0], nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(bytes.Join(records, []byte{','}))
	buf.WriteByte(']')

	return buf.Bytes(), nil
}
