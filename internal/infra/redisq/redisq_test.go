package redisq

import (
	"context"
	"corequeue/internal/config"
	"corequeue/internal/domain"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(config.Redis{Addr: mr.Addr(), QueueKey: "test:requests", ResultNamespace: "test_results"})
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Connect(context.Background()))
	return c, mr
}

func TestListQueueIsFIFO(t *testing.T) {
	c, _ := newTestClient(t)
	q := c.Queue()
	ctx := context.Background()

	uid := int64(42)
	at := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, q.Push(ctx, domain.Submission{ID: "r1", Operation: "ping", Arguments: map[string]any{}, SubmittedAt: at}))
	require.NoError(t, q.Push(ctx, domain.Submission{ID: "r2", Operation: "balance_info", UserID: &uid, SubmittedAt: at}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r1", first.ID)
	assert.Nil(t, first.UserID)
	assert.True(t, at.Equal(first.SubmittedAt), "submission time lost precision: %s", first.SubmittedAt)

	second, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r2", second.ID)
	require.NotNil(t, second.UserID)
	assert.Equal(t, int64(42), *second.UserID)

	_, ok, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListQueueKeepsNumbersExact(t *testing.T) {
	c, _ := newTestClient(t)
	q := c.Queue()
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, domain.Submission{
		ID:        "r1",
		Operation: "order_limit",
		Arguments: map[string]any{"amount": json.Number("0.000000012345678901"), "id": json.Number("9007199254740993")},
	}))

	s, ok, err := q.Pop(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, json.Number("0.000000012345678901"), s.Arguments["amount"])
	assert.Equal(t, json.Number("9007199254740993"), s.Arguments["id"])
}

func TestListQueueMalformedRecord(t *testing.T) {
	c, mr := newTestClient(t)
	q := c.Queue()

	_, err := mr.Lpush("test:requests", "{not json")
	require.NoError(t, err)
	_, err = mr.Lpush("test:requests", `{"id":"","operation":"ping"}`)
	require.NoError(t, err)

	// rpop takes the oldest first
	_, ok, err := q.Pop(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domain.ErrMalformedRecord))

	_, ok, err = q.Pop(context.Background())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, domain.ErrMalformedRecord))
}

func TestListQueueUnavailable(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	_, _, err := c.Queue().Pop(context.Background())
	assert.True(t, errors.Is(err, domain.ErrQueueUnavailable))

	err = c.Queue().Push(context.Background(), domain.Submission{ID: "r1", Operation: "ping"})
	assert.True(t, errors.Is(err, domain.ErrQueueUnavailable))
}

func TestResultStoreRoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	rs := c.Results()
	ctx := context.Background()

	_, ok, err := rs.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rs.Put(ctx, "r1", domain.Success(json.RawMessage(`"pong"`)), time.Minute))
	assert.True(t, mr.Exists("test_results:r1"))

	r, ok, err := rs.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.OK())
	assert.JSONEq(t, `"pong"`, string(r.Data))

	require.NoError(t, rs.Delete(ctx, "r1"))
	_, ok, err = rs.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultStoreExpires(t *testing.T) {
	c, mr := newTestClient(t)
	rs := c.Results()
	ctx := context.Background()

	require.NoError(t, rs.Put(ctx, "r1", domain.Failed(domain.KindUpstreamExecution, "boom", 11), 5*time.Second))
	assert.Equal(t, 5*time.Second, mr.TTL("test_results:r1"))

	mr.FastForward(4 * time.Second)
	_, ok, err := rs.Get(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Second)
	_, ok, err = rs.Get(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultStoreUnavailable(t *testing.T) {
	c, mr := newTestClient(t)
	mr.Close()

	err := c.Results().Put(context.Background(), "r1", domain.Success(nil), time.Minute)
	assert.True(t, errors.Is(err, domain.ErrResultStoreUnavailable))
}
