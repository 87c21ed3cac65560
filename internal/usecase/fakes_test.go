package usecase

import (
	"context"
	"corequeue/internal/domain"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type memQueue struct {
	mu    sync.Mutex
	items []domain.Submission
	errs  []error // returned by Pop before items, one per call
	pops  int
}

func (q *memQueue) Push(_ context.Context, s domain.Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, s)
	return nil
}

func (q *memQueue) Pop(context.Context) (domain.Submission, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pops++
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		return domain.Submission{}, false, err
	}
	if len(q.items) == 0 {
		return domain.Submission{}, false, nil
	}
	s := q.items[0]
	q.items = q.items[1:]
	return s, true, nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type memResults struct {
	mu       sync.Mutex
	data     map[string]domain.Result
	ttls     map[string]time.Duration
	failures int // Put fails this many times first
	puts     int
}

func newMemResults() *memResults {
	return &memResults{data: map[string]domain.Result{}, ttls: map[string]time.Duration{}}
}

func (m *memResults) Put(_ context.Context, id string, r domain.Result, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failures > 0 {
		m.failures--
		return domain.ErrResultStoreUnavailable
	}
	m.data[id] = r
	m.ttls[id] = ttl
	return nil
}

func (m *memResults) Get(_ context.Context, id string) (domain.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[id]
	return r, ok, nil
}

func (m *memResults) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memAccounts map[int64]domain.Credentials

func (a memAccounts) Lookup(_ context.Context, id int64) (domain.Credentials, error) {
	c, ok := a[id]
	if !ok {
		return domain.Credentials{}, domain.ErrAccountNotFound
	}
	return c, nil
}

type stubUpstream struct {
	mu    sync.Mutex
	calls int
	creds []*domain.Credentials
	fn    func(op string) (json.RawMessage, error)
}

func (u *stubUpstream) Call(_ context.Context, op string, _ map[string]any, creds *domain.Credentials) (json.RawMessage, error) {
	u.mu.Lock()
	u.calls++
	u.creds = append(u.creds, creds)
	u.mu.Unlock()
	if u.fn != nil {
		return u.fn(op)
	}
	if op == "ping" {
		return json.RawMessage(`"pong"`), nil
	}
	return nil, errors.New("unexpected operation " + op)
}

type recordingExec struct {
	mu   sync.Mutex
	got  []domain.ScheduledRequest
	when []time.Time
}

func (e *recordingExec) Execute(_ context.Context, r domain.ScheduledRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, r)
	e.when = append(e.when, time.Now())
}

func (e *recordingExec) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.got)
}

func (e *recordingExec) requests() []domain.ScheduledRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.ScheduledRequest(nil), e.got...)
}

type fixedClass map[string]int

func (f fixedClass) Classify(op string) int {
	if c, ok := f[op]; ok {
		return c
	}
	return 5
}
