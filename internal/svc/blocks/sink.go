// If you are AI: This file implements Sink, a terminal consumer that summarises frames.

package blocks

import (
	"context"
	"math"
	"sync/atomic"

	"dataflow/internal/config"
	"dataflow/internal/core/flow"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink consumes frames on "in", records their mean value and releases them.
type Sink struct {
	id       string
	in       *flow.Receiver
	lastTS   atomic.Int64
	lastMean atomic.Uint64 // math.Float64bits of the last frame mean
	stats    counters
	logger   zerolog.Logger
}

// NewSink creates a sink block from its configuration.
func NewSink(cfg config.BlockConfig) *Sink {
	return &Sink{
		id:     cfg.ID,
		in:     flow.NewReceiver(cfg.ID, InPort, flow.DataType(cfg.DataType)),
		logger: log.With().Str("component", "blocks.sink").Str("block", cfg.ID).Logger(),
	}
}

// ID returns the block id.
func (s *Sink) ID() string { return s.id }

// Kind returns config.KindSink.
func (s *Sink) Kind() string { return config.KindSink }

// Senders returns nil; sinks have no outputs.
func (s *Sink) Senders() []*flow.Sender { return nil }

// Receivers returns the in port.
func (s *Sink) Receivers() []*flow.Receiver { return []*flow.Receiver{s.in} }

// Info returns a snapshot of the block state.
func (s *Sink) Info() Info { return s.stats.info(s.id, s.Kind()) }

// LastTimestamp returns the timestamp of the last consumed frame.
func (s *Sink) LastTimestamp() int64 { return s.lastTS.Load() }

// LastMean returns the mean element value of the last consumed frame.
func (s *Sink) LastMean() float64 { return math.Float64frombits(s.lastMean.Load()) }

// Run consumes frames until ctx is cancelled.
func (s *Sink) Run(ctx context.Context) error {
	s.stats.running.Store(true)
	defer s.stats.running.Store(false)

	for {
		ts, _, view, err := s.in.ReceiveContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if unlinked(err) {
				if !sleepCtx(ctx, idleWait) {
					return nil
				}
				continue
			}
			s.stats.dropped.Add(1)
			s.logger.Warn().Err(err).Msg("receive failed")
			continue
		}

		m := mean(view)
		s.in.ReleaseView(view)

		s.lastTS.Store(ts)
		s.lastMean.Store(math.Float64bits(m))
		n := s.stats.frames.Add(1)
		s.logger.Trace().Int64("ts", ts).Float64("mean", m).Uint64("frames", n).Msg("frame")
	}
}

// mean returns the arithmetic mean of all elements in v, or 0 if v cannot be read.
func mean(v flow.View) float64 {
	var sum float64
	var n int
	switch v.Element() {
	case flow.ElementUint8:
		data, err := v.Uint8()
		if err != nil {
			return 0
		}
		for _, x := range data {
			sum += float64(x)
		}
		n = len(data)
	case flow.ElementFloat32:
		data, err := v.Float32()
		if err != nil {
			return 0
		}
		for _, x := range data {
			sum += float64(x)
		}
		n = len(data)
	case flow.ElementFloat64:
		data, err := v.Float64()
		if err != nil {
			return 0
		}
		for _, x := range data {
			sum += x
		}
		n = len(data)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
