package redisq

import (
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ ports.ResultStore = (*ResultStore)(nil)

// ResultStore keeps one JSON result per request under "<namespace>:<id>".
type ResultStore struct {
	rdb       *redis.Client
	namespace string
}

func NewResultStore(rdb *redis.Client, namespace string) *ResultStore {
	return &ResultStore{rdb: rdb, namespace: namespace}
}

func (s *ResultStore) key(id string) string { return s.namespace + ":" + id }

func (s *ResultStore) Put(ctx context.Context, id string, r domain.Result, ttl time.Duration) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", id, err)
	}
	if err := s.rdb.Set(ctx, s.key(id), b, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrResultStoreUnavailable, s.key(id), err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id string) (domain.Result, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Result{}, false, nil
		}
		return domain.Result{}, false, fmt.Errorf("%w: get %s: %v", domain.ErrResultStoreUnavailable, s.key(id), err)
	}
	var r domain.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Result{}, false, fmt.Errorf("decode result %s: %w", id, err)
	}
	return r, true, nil
}

func (s *ResultStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", domain.ErrResultStoreUnavailable, s.key(id), err)
	}
	return nil
}
