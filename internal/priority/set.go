package priority

import (
	"container/heap"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"sync"
	"time"
)

var _ ports.Scheduler = (*Set)(nil)

// pendingHeap is a min-heap over effective priority at a fixed instant.
type pendingHeap struct {
	items []domain.ScheduledRequest
	now   time.Time
}

func (h *pendingHeap) Len() int { return len(h.items) }

func (h *pendingHeap) Less(i, j int) bool {
	return Compare(h.items[i], h.items[j], h.now) < 0
}

func (h *pendingHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *pendingHeap) Push(x any) { h.items = append(h.items, x.(domain.ScheduledRequest)) }

func (h *pendingHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	old[n-1] = domain.ScheduledRequest{}
	h.items = old[:n-1]
	return it
}

// Set is the concurrency-safe pending set. Relative order of two requests
// can flip as they age, so the heap is re-established at the pop instant
// before removing the root.
type Set struct {
	mu      sync.Mutex
	h       pendingHeap
	timeout time.Duration
}

// NewSet returns an empty set whose entries expire after timeout.
func NewSet(timeout time.Duration) *Set {
	return &Set{timeout: timeout}
}

func (s *Set) Push(r domain.ScheduledRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	heap.Push(&s.h, r)
}

func (s *Set) Pop(now time.Time) (domain.ScheduledRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h.Len() == 0 {
		return domain.ScheduledRequest{}, false
	}
	s.reorder(now)
	return heap.Pop(&s.h).(domain.ScheduledRequest), true
}

func (s *Set) DropExpired(now time.Time) []domain.ScheduledRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped []domain.ScheduledRequest
	kept := s.h.items[:0]
	for _, it := range s.h.items {
		if Expired(it, now, s.timeout) {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	for i := len(kept); i < len(s.h.items); i++ {
		s.h.items[i] = domain.ScheduledRequest{}
	}
	s.h.items = kept
	if len(dropped) > 0 {
		s.reorder(now)
	}
	return dropped
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}

func (s *Set) Timeout() time.Duration { return s.timeout }

func (s *Set) reorder(now time.Time) {
	s.h.now = now
	heap.Init(&s.h)
}
