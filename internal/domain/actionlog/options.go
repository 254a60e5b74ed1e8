package actionlog

import (
	"time"

	"github.com/okian/imobrank/internal/domain/idempotency"
	"github.com/okian/imobrank/pkg/logger"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

// WithIdempotencyCache sets the cache backing RecordIdempotent.
func WithIdempotencyCache(c *idempotency.Cache) Option {
	return func(r *Recorder) {
		if c != nil {
			r.keys = c
		}
	}
}

// WithTimeout bounds the insert shared by concurrent keyed requests.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}
