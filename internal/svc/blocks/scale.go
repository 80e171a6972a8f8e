// If you are AI: This file implements Scale, which converts frames to normalised float32.
// It is the only block with both an input and an output port.

package blocks

import (
	"context"
	"fmt"

	"dataflow/internal/config"
	"dataflow/internal/core/flow"
	"dataflow/internal/core/pool"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Scale reads frames on "in", converts every element to float32 and emits the
// result on "out". Uint8 input is mapped to [0, 1].
// Allocation: one pooled output buffer per frame; the input buffer is
// released as soon as it has been converted.
type Scale struct {
	id       string
	in       *flow.Receiver
	out      *flow.Sender
	pool     *pool.Pool
	blocking bool
	stats    counters
	logger   zerolog.Logger
}

// NewScale creates a scale block from its configuration.
func NewScale(cfg config.BlockConfig, p *pool.Pool) *Scale {
	return &Scale{
		id:       cfg.ID,
		in:       flow.NewReceiver(cfg.ID, InPort, flow.DataType(cfg.DataType)),
		out:      flow.NewSender(cfg.ID, OutPort, flow.DataType(cfg.OutputType), senderOptions(cfg.BackoffMS)...),
		pool:     p,
		blocking: cfg.Blocking,
		logger:   log.With().Str("component", "blocks.scale").Str("block", cfg.ID).Logger(),
	}
}

// ID returns the block id.
func (s *Scale) ID() string { return s.id }

// Kind returns config.KindScale.
func (s *Scale) Kind() string { return config.KindScale }

// Senders returns the out port.
func (s *Scale) Senders() []*flow.Sender { return []*flow.Sender{s.out} }

// Receivers returns the in port.
func (s *Scale) Receivers() []*flow.Receiver { return []*flow.Receiver{s.in} }

// Info returns a snapshot of the block state.
func (s *Scale) Info() Info { return s.stats.info(s.id, s.Kind()) }

// Run converts frames until ctx is cancelled. While the input is unlinked the
// block idles and retries.
func (s *Scale) Run(ctx context.Context) error {
	s.stats.running.Store(true)
	defer s.stats.running.Store(false)

	for {
		ts, format, view, err := s.in.ReceiveContext(ctx)
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
			s.logger.Warn().Err(err).Msg("receive failed")
			continue
		}

		outFormat := flow.NewFormat(flow.PixelFormatF32C3, format.Dims...)
		if err := outFormat.Validate(); err != nil {
			s.in.ReleaseView(view)
			s.stats.dropped.Add(1)
			s.logger.Warn().Err(err).Msg("output format rejected")
			continue
		}
		buf := s.pool.Acquire(outFormat)
		err = convert(view, buf, outFormat)
		s.in.ReleaseView(view)
		if err != nil {
			s.pool.Put(buf)
			s.logger.Warn().Err(err).Str("format", format.String()).Msg("convert failed")
			continue
		}

		var served int
		if s.blocking {
			served, _ = s.out.SendBlockingContext(ctx, ts, outFormat, buf)
		} else {
			served = s.out.Send(ts, outFormat, buf)
		}
		if served == 0 {
			s.pool.Put(buf)
			s.stats.dropped.Add(1)
			continue
		}
		s.stats.frames.Add(1)
	}
}

// convert writes the elements of in as float32 into buf.
func convert(in flow.View, buf *flow.Buffer, outFormat flow.Format) error {
	outView, err := flow.NewView(buf, outFormat, nil)
	if err != nil {
		return err
	}
	dst, err := outView.Float32()
	if err != nil {
		return err
	}

	switch in.Element() {
	case flow.ElementUint8:
		src, err := in.Uint8()
		if err != nil {
			return err
		}
		for i, v := range src {
			dst[i] = float32(v) / 255
		}
	case flow.ElementFloat32:
		src, err := in.Float32()
		if err != nil {
			return err
		}
		copy(dst, src)
	case flow.ElementFloat64:
		src, err := in.Float64()
		if err != nil {
			return err
		}
		for i, v := range src {
			dst[i] = float32(v)
		}
	default:
		return fmt.Errorf("unsupported element type %s", in.Element())
	}
	return nil
}
