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

package transport

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"

	contentTypeHeader = "Content-Type"
)

// ErrUnexpectedStatus is returned when the endpoint answers with a status outside
// the accepted set.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client posts payloads to one endpoint. It sends synchronously and never retries.
type Client struct {
	endpoint string
	headers  map[string]string
	accepted []int
	rest     *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithAcceptedStatus replaces the set of statuses treated as success (default 200).
func WithAcceptedStatus(codes ...int) Option {
	return func(c *Client) {
		c.accepted = codes
	}
}

// NewClient returns a client for endpoint using httpClient for the connections.
func NewClient(httpClient *http.Client, endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		headers:  map[string]string{},
		accepted: []int{http.StatusOK},
		rest:     resty.NewWithClient(httpClient),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string { return c.endpoint }

// Post sends body with the given content type.
func (c *Client) Post(ctx context.Context, contentType string, body []byte) error {
	request := c.rest.R().
		SetContext(ctx).
		SetHeaders(c.headers).
		SetHeader(contentTypeHeader, contentType).
		SetBody(body)

	response, err := request.Post(c.endpoint)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", c.endpoint)
	}

	for _, code := range c.accepted {
		if response.StatusCode() == code {
			return nil
		}
	}

	return errors.Wrapf(ErrUnexpectedStatus, "request to %s failed: %d[%s] %s",
		c.endpoint, response.StatusCode(), response.Status(), response.String())
}
