// Package rendezvous is the caller side of the pipeline: submit a request to
// the durable queue, then poll the result store until the result shows up or
// the caller's deadline passes.
package rendezvous

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"corequeue/internal/usecase"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Client struct {
	Enqueuer usecase.Enqueuer
	Results  ports.ResultStore
	// Timeout is measured from the submission time, not from scheduler arrival.
	Timeout      time.Duration
	PollInterval time.Duration
	Now          func() time.Time
}

func New(q ports.DurableQueue, results ports.ResultStore, timeout, poll time.Duration) *Client {
	return &Client{
		Enqueuer:     usecase.Enqueuer{Q: q},
		Results:      results,
		Timeout:      timeout,
		PollInterval: poll,
		Now:          time.Now,
	}
}

// Do submits s and waits for its result. A missed deadline returns
// domain.ErrTimedOut, which is distinct from any upstream failure result.
func (c *Client) Do(ctx context.Context, s domain.Submission) (domain.Result, error) {
	s.SubmittedAt = c.stamp(s.SubmittedAt)
	sub, err := c.Enqueuer.Submit(ctx, s)
	if err != nil {
		return domain.Result{}, fmt.Errorf("submit: %w", err)
	}
	return c.Await(ctx, sub.ID, sub.SubmittedAt.Add(c.Timeout))
}

// Await polls for id until deadline. The key is deleted once read, and on
// timeout as advisory cleanup. Deletion never cancels a dispatched request.
func (c *Client) Await(ctx context.Context, id string, deadline time.Time) (domain.Result, error) {
	logger := log.Ctx(ctx).With().Str("component", "rendezvous").Str("request_id", id).Logger()
	poll := c.PollInterval
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		r, ok, err := c.Results.Get(ctx, id)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("result poll failed")
		case ok:
			if err := c.Results.Delete(ctx, id); err != nil {
				logger.Warn().Err(err).Msg("result delete failed")
			}
			return r, nil
		}

		if !c.now().Before(deadline) {
			c.forget(ctx, id)
			logger.Info().Time("deadline", deadline).Msg("request timed out")
			return domain.Result{}, fmt.Errorf("request %s: %w", id, domain.ErrTimedOut)
		}

		select {
		case <-ctx.Done():
			c.forget(ctx, id)
			return domain.Result{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) forget(ctx context.Context, id string) {
	if err := c.Results.Delete(context.WithoutCancel(ctx), id); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("request_id", id).Msg("cleanup delete failed")
	}
}

func (c *Client) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}

func (c *Client) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
