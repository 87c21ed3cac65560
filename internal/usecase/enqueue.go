package usecase

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Enqueuer is the submitting side of the durable queue.
type Enqueuer struct {
	Q   ports.DurableQueue
	Now func() time.Time
}

// Submit pushes s, assigning an id and submission time when they are unset.
// The returned submission is the one that was persisted.
func (e Enqueuer) Submit(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	if s.Operation == "" {
		return s, errors.New("submission needs an operation")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.SubmittedAt.IsZero() {
		now := e.Now
		if now == nil {
			now = time.Now
		}
		s.SubmittedAt = now()
	}
	if s.Arguments == nil {
		s.Arguments = map[string]any{}
	}
	if err := e.Q.Push(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}
