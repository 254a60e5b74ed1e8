package ranking

import (
	"time"

	"github.com/okian/imobrank/pkg/logger"
)

const (
	defaultQueryTimeout       = 5 * time.Second
	defaultConsistencyRetries = 2
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithQueryTimeout bounds one Compute call, retries included. Zero disables
// the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithConsistencyRetries sets how many times a ranking is recomputed when
// its reads disagree.
func WithConsistencyRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = n
		}
	}
}
