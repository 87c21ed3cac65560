package redisq

import (
	"bytes"
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var _ ports.DurableQueue = (*ListQueue)(nil)

// ListQueue is a FIFO on a redis list: LPUSH on submit, RPOP on ingest.
// RPOP is a destructive read; an item popped by a process that dies before
// scheduling it is lost.
type ListQueue struct {
	rdb *redis.Client
	key string
}

func NewListQueue(rdb *redis.Client, key string) *ListQueue {
	return &ListQueue{rdb: rdb, key: key}
}

func (q *ListQueue) Push(ctx context.Context, s domain.Submission) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", s.ID, err)
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("%w: lpush %s: %v", domain.ErrQueueUnavailable, q.key, err)
	}
	return nil
}

func (q *ListQueue) Pop(ctx context.Context) (domain.Submission, bool, error) {
	raw, err := q.rdb.RPop(ctx, q.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Submission{}, false, nil
		}
		return domain.Submission{}, false, fmt.Errorf("%w: rpop %s: %v", domain.ErrQueueUnavailable, q.key, err)
	}

	s, err := decodeSubmission(raw)
	if err != nil {
		return domain.Submission{}, false, err
	}
	return s, true, nil
}

func (q *ListQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// decodeSubmission keeps numeric arguments as json.Number so large integers
// and prices reach the exchange unchanged.
func decodeSubmission(raw []byte) (domain.Submission, error) {
	var s domain.Submission
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return domain.Submission{}, fmt.Errorf("%w: %v", domain.ErrMalformedRecord, err)
	}
	if s.ID == "" || s.Operation == "" {
		return domain.Submission{}, fmt.Errorf("%w: id and operation are required", domain.ErrMalformedRecord)
	}
	return s, nil
}
