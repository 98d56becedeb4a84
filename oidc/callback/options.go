package callback

import (
	"time"

	"github.com/hashicorp/go-hclog"
)

// Option defines a common functional options type for the handler factories
type Option func(*options)

// DefaultLoginExpiry bounds how long a login redirect stays exchangeable.
const DefaultLoginExpiry = 10 * time.Minute

type options struct {
	withLogger      hclog.Logger
	withLoginExpiry time.Duration
}

func getOpts(opt ...Option) options {
	opts := options{
		withLogger:      hclog.NewNullLogger(),
		withLoginExpiry: DefaultLoginExpiry,
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithLogger provides a structured logger for the handlers; without it they
// are silent.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.withLogger = l
		}
	}
}

// WithLoginExpiry overrides how long a pending login flow stays valid.
func WithLoginExpiry(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.withLoginExpiry = d
		}
	}
}
