// If you are AI: This file defines functional options shared by sender and receiver constructors.

package flow

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBackoff is the delay a non-blocking Send waits when no receiver accepted a frame.
const DefaultBackoff = 10 * time.Millisecond

// Option configures a Sender or Receiver.
type Option func(*options)

type options struct {
	logger  *zerolog.Logger
	backoff time.Duration
}

// WithLogger sets the logger used for link lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithBackoff sets the Send backoff. Ignored by receivers.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.backoff = d
		}
	}
}

// applyOptions resolves options and scopes the logger to the given component and port.
func applyOptions(component string, id PortID, opts []Option) options {
	o := options{backoff: DefaultBackoff}
	for _, opt := range opts {
		opt(&o)
	}
	base := log.Logger
	if o.logger != nil {
		base = *o.logger
	}
	scoped := base.With().Str("component", component).Str("port", id.String()).Logger()
	o.logger = &scoped
	return o
}
