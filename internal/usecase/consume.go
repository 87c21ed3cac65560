package usecase

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"corequeue/pkg/backoff"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Ingestor drains the durable queue into the core.
type Ingestor struct {
	Q            ports.DurableQueue
	Core         *Core
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	Now          func() time.Time
}

// Run pops until ctx is done. A queue outage backs off and retries; it never
// ends the loop.
func (i Ingestor) Run(ctx context.Context) error {
	now := i.Now
	if now == nil {
		now = time.Now
	}
	retry := backoff.Retrier{Base: i.BaseBackoff, Max: i.MaxBackoff}
	logger := log.Ctx(ctx).With().Str("component", "ingestor").Logger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s, ok, err := i.Q.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrMalformedRecord) {
				logger.Warn().Err(err).Msg("dropping malformed queue record")
				continue
			}
			i.Core.Metrics().InfraErrors.WithLabelValues("durable_queue").Inc()
			delay := retry.Fail()
			logger.Error().Err(err).Int("failures", retry.Failures()).Dur("retry_in", delay).
				Msg("durable queue pop failed")
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}
		if retry.Failures() > 0 {
			logger.Info().Int("failures", retry.Failures()).Msg("durable queue recovered")
			retry.Reset()
		}

		if !ok {
			if !sleep(ctx, i.PollInterval) {
				return ctx.Err()
			}
			continue
		}
		i.Core.Admit(ctx, s, now())
	}
}

// sleep waits d or until ctx is done. It reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
