package usecase

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Dispatcher admits at most MaxPerCycle requests per Cycle from the core and
// hands each to Exec without waiting for it.
type Dispatcher struct {
	Core        *Core
	Exec        ports.Executor
	MaxPerCycle int
	// Cycle defaults to one second.
	Cycle time.Duration
	// Delay spaces consecutive hand-offs inside a cycle.
	Delay time.Duration
	Now   func() time.Time

	inflight sync.WaitGroup
}

func (d *Dispatcher) Run(ctx context.Context) error {
	cycle := d.Cycle
	if cycle <= 0 {
		cycle = time.Second
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	pacer := rate.NewLimiter(rate.Inf, 1)
	if d.Delay > 0 {
		pacer = rate.NewLimiter(rate.Every(d.Delay), 1)
	}
	logger := log.Ctx(ctx).With().Str("component", "dispatcher").Logger()
	logger.Info().Int("max_per_cycle", d.MaxPerCycle).Dur("cycle", cycle).Dur("delay", d.Delay).
		Msg("dispatcher started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycleEnd := time.Now().Add(cycle)
		d.Core.Expire(ctx, now())

		sent := 0
		for sent < d.MaxPerCycle {
			if err := pacer.Wait(ctx); err != nil {
				return ctx.Err()
			}
			r, ok := d.Core.Next(ctx, now())
			if !ok {
				break
			}
			d.handOff(ctx, r, now())
			sent++
		}
		if sent > 0 {
			logger.Debug().Int("dispatched", sent).Int("pending", d.Core.Len()).Msg("cycle done")
		}

		// An overrun cycle starts the next one at once.
		if !sleep(ctx, time.Until(cycleEnd)) {
			return ctx.Err()
		}
	}
}

// Wait blocks until every handed-off request finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) handOff(ctx context.Context, r domain.ScheduledRequest, at time.Time) {
	d.Core.Metrics().ObserveDispatch(r, at)
	// In-flight calls outlive shutdown of the loop; they are never cancelled.
	execCtx := context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.Exec.Execute(execCtx, r)
	}()
}
