package usecase

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/observability"
	"corequeue/internal/ports"
	"corequeue/internal/priority"
	"time"

	"github.com/rs/zerolog/log"
)

// Core owns the pending set shared by one Ingestor and one Dispatcher.
type Core struct {
	pending    *priority.Set
	classifier ports.Classifier
	metrics    *observability.Metrics
}

// NewCore builds an isolated scheduler core. Entries expire after
// queueTimeout; zero disables expiry.
func NewCore(queueTimeout time.Duration, classifier ports.Classifier, m *observability.Metrics) *Core {
	if m == nil {
		m = observability.NewMetrics()
	}
	return &Core{
		pending:    priority.NewSet(queueTimeout),
		classifier: classifier,
		metrics:    m,
	}
}

// Admit classifies s, stamps its arrival and inserts it.
func (c *Core) Admit(ctx context.Context, s domain.Submission, now time.Time) domain.ScheduledRequest {
	r := domain.NewScheduledRequest(s, c.classifier.Classify(s.Operation), now)
	c.Push(r)
	c.metrics.Ingested.Inc()
	log.Ctx(ctx).Debug().Str("component", "ingestor").Str("request_id", r.ID).
		Str("operation", r.Operation).Int("priority", r.BasePriority).Msg("request admitted")
	return r
}

// Push inserts an already classified request.
func (c *Core) Push(r domain.ScheduledRequest) {
	c.pending.Push(r)
	c.metrics.Pending.Set(float64(c.pending.Len()))
}

// Next pops the most urgent live request at now. Expired entries met on the
// way are dropped and do not count as a pop.
func (c *Core) Next(ctx context.Context, now time.Time) (domain.ScheduledRequest, bool) {
	defer func() { c.metrics.Pending.Set(float64(c.pending.Len())) }()
	for {
		r, ok := c.pending.Pop(now)
		if !ok {
			return domain.ScheduledRequest{}, false
		}
		if priority.Expired(r, now, c.pending.Timeout()) {
			c.dropped(ctx, r, now)
			continue
		}
		return r, true
	}
}

// Expire removes every entry that waited past the queue timeout.
func (c *Core) Expire(ctx context.Context, now time.Time) int {
	dropped := c.pending.DropExpired(now)
	for _, r := range dropped {
		c.dropped(ctx, r, now)
	}
	c.metrics.Pending.Set(float64(c.pending.Len()))
	return len(dropped)
}

func (c *Core) Len() int { return c.pending.Len() }

func (c *Core) Metrics() *observability.Metrics { return c.metrics }

func (c *Core) dropped(ctx context.Context, r domain.ScheduledRequest, now time.Time) {
	c.metrics.Expired.Inc()
	log.Ctx(ctx).Warn().Str("component", "dispatcher").Str("request_id", r.ID).
		Str("operation", r.Operation).Dur("waited", now.Sub(r.ArrivalTime)).
		Msg("request expired in queue, dropped without result")
}
