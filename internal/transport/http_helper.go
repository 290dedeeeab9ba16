package transport

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/http2"

	"github.com/oracle-samples/oci-observability-functions/pkg/utility"
)

var (
	httpClient     *http.Client
	httpClientOnce sync.Once
	httpClientErr  error
)

type HTTPClientSettings struct {
	Connect          time.Duration
	ConnKeepAlive    time.Duration
	ExpectContinue   time.Duration
	IdleConn         time.Duration
	MaxAllIdleConns  int
	MaxHostIdleConns int
	ResponseHeader   time.Duration
	TLSHandshake     time.Duration
	Timeout          time.Duration
}

// DefaultHTTPClientSettings keeps a pool of 10 connections per host so a function
// reuses connections across the POSTs of one invocation and across invocations of
// a hot container.
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		Connect:          6 * time.Second,
		ConnKeepAlive:    30 * time.Second,
		ExpectContinue:   1 * time.Second,
		IdleConn:         90 * time.Second,
		MaxAllIdleConns:  10,
		MaxHostIdleConns: 10,
		ResponseHeader:   0,
		TLSHandshake:     10 * time.Second,
		Timeout:          30 * time.Second,
	}
}

func NewHTTPClient(httpSettings HTTPClientSettings) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: httpSettings.ResponseHeader,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: httpSettings.ConnKeepAlive,
			Timeout:   httpSettings.Connect,
		}).DialContext,
		MaxIdleConns:          httpSettings.MaxAllIdleConns,
		IdleConnTimeout:       httpSettings.IdleConn,
		TLSHandshakeTimeout:   httpSettings.TLSHandshake,
		MaxIdleConnsPerHost:   httpSettings.MaxHostIdleConns,
		ExpectContinueTimeout: httpSettings.ExpectContinue,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, errors.Wrap(err, "failed to configure http2 transport")
	}

	return &http.Client{
		Transport: tr,
		Timeout:   httpSettings.Timeout,
	}, nil
}

// GetHTTPClient returns the process wide client, building it on first use.
func GetHTTPClient() (*http.Client, error) {
	httpClientOnce.Do(func() {
		httpClient, httpClientErr = NewHTTPClient(DefaultHTTPClientSettings())
		if httpClientErr != nil {
			httpClientErr = errors.Wrap(httpClientErr, "failed to create custom client")
			utility.LogError(httpClientErr, "NewHTTPClientError", "Failed to create http client")
		}
	})

	return httpClient, httpClientErr
}
