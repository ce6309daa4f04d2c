package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"voxelcraft.ai/durability/internal/sim/replicate"
	"voxelcraft.ai/durability/internal/sim/world"
)

// runner owns the world. Ticks and console commands are both executed on the
// Run goroutine, so the world never sees concurrent access.
type runner struct {
	w       *world.World
	tracker *replicate.Tracker
	log     zerolog.Logger

	tick   time.Duration
	nowMs  int64
	cmdCh  chan func()
	frames func([]byte)
}

func newRunner(w *world.World, tracker *replicate.Tracker, tickRateHz int, log zerolog.Logger) *runner {
	if tickRateHz <= 0 {
		tickRateHz = 20
	}
	return &runner{
		w:       w,
		tracker: tracker,
		log:     log,
		tick:    time.Second / time.Duration(tickRateHz),
		nowMs:   w.NowMs(),
		cmdCh:   make(chan func()),
	}
}

func (r *runner) Run(ctx context.Context) error {
	t := time.NewTicker(r.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.advance(r.tick.Milliseconds())
		case fn := <-r.cmdCh:
			fn()
		}
	}
}

// advance moves game time forward by dt and runs one world step.
func (r *runner) advance(dtMs int64) int {
	r.nowMs += dtMs
	n := r.w.Step(r.nowMs)
	if n > 0 {
		r.log.Debug().Int64("now_ms", r.nowMs).Int("decayed", n).Msg("decay pass")
	}
	r.flush()
	return n
}

func (r *runner) flush() {
	if r.tracker == nil {
		return
	}
	pending := r.tracker.Pending()
	b, err := r.tracker.Flush()
	if err != nil {
		r.log.Warn().Err(err).Msg("replicate flush failed")
		return
	}
	if b == nil {
		return
	}
	r.log.Debug().Int("entities", pending).Int("bytes", len(b)).Msg("replicate batch")
	if r.frames != nil {
		r.frames(b)
	}
}

// Do runs fn on the world goroutine and waits for it to finish.
func (r *runner) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
		r.flush()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.cmdCh <- wrapped:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
