package api

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type
type Option func(*options)

type options struct {
	withProviderCA     string
	withRequestTimeout time.Duration
	withLogger         hclog.Logger
	withHTTPClient     *http.Client
}

func getOpts(opt ...Option) options {
	opts := options{
		withRequestTimeout: DefaultRequestTimeout,
		withLogger:         hclog.NewNullLogger(),
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithProviderCA provides an optional CA cert to trust when calling the API
func WithProviderCA(cert string) Option {
	return func(o *options) {
		o.withProviderCA = cert
	}
}

// WithRequestTimeout overrides the default request timeout
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.withRequestTimeout = d
	}
}

// WithLogger provides a structured logger for debug-level request logging
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.withLogger = l
		}
	}
}

// WithHTTPClient overrides the client used for API requests, taking
// precedence over WithProviderCA and WithRequestTimeout
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.withHTTPClient = c
	}
}
