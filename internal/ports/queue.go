package ports

import (
	"context"
	"corequeue/internal/domain"
	"encoding/json"
	"time"
)

// DurableQueue is the shared at-least-once FIFO in front of the scheduler.
type DurableQueue interface {
	Push(ctx context.Context, s domain.Submission) error
	// Pop never blocks; ok is false when the queue is empty.
	Pop(ctx context.Context) (s domain.Submission, ok bool, err error)
}

// ResultStore is the keyed rendezvous between executors and callers.
type ResultStore interface {
	Put(ctx context.Context, id string, r domain.Result, ttl time.Duration) error
	Get(ctx context.Context, id string) (r domain.Result, ok bool, err error)
	Delete(ctx context.Context, id string) error
}

type Classifier interface {
	Classify(operation string) int
}

type AccountStore interface {
	// Lookup returns domain.ErrAccountNotFound when the user has no keys.
	Lookup(ctx context.Context, userID int64) (domain.Credentials, error)
}

// Upstream executes one named exchange operation. A nil creds means
// anonymous access.
type Upstream interface {
	Call(ctx context.Context, operation string, args map[string]any, creds *domain.Credentials) (json.RawMessage, error)
}

// Scheduler is the in-memory pending set shared by ingestor and dispatcher.
type Scheduler interface {
	Push(r domain.ScheduledRequest)
	// Pop removes the most urgent request at now; ok is false when empty.
	Pop(now time.Time) (r domain.ScheduledRequest, ok bool)
	// DropExpired removes and returns every request that waited past the timeout.
	DropExpired(now time.Time) []domain.ScheduledRequest
	Len() int
}

// Executor runs one dispatched request to completion and records its outcome.
type Executor interface {
	Execute(ctx context.Context, r domain.ScheduledRequest)
}
