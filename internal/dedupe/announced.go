package dedupe

import (
	"sync"
	"time"
)

type mark struct {
	bill string
	at   time.Time
}

// Announced remembers which bills were already published, bounded by
// capacity and ttl. Oldest marks are evicted first.
type Announced struct {
	mu       sync.Mutex
	marks    map[string]time.Time
	order    []mark
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewAnnounced creates a set with the provided capacity and ttl.
func NewAnnounced(capacity int, ttl time.Duration) *Announced {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Announced{
		marks:    make(map[string]time.Time, capacity),
		order:    make([]mark, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (a *Announced) SetClock(now func() time.Time) {
	a.now = now
}

// Has reports whether bill was marked inside the ttl window.
func (a *Announced) Has(bill string) bool {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	at, ok := a.marks[bill]
	return ok && now.Sub(at) <= a.ttl
}

// Mark records bills as published. Marking an already tracked bill
// restarts its ttl window.
func (a *Announced) Mark(bills ...string) {
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, b := range bills {
		a.marks[b] = now
		a.order = append(a.order, mark{bill: b, at: now})
	}
	a.evict(now)
}

// Len returns the number of tracked bills.
func (a *Announced) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.marks)
}

// Queued returns the number of pending eviction entries, including ones
// superseded by a later mark.
func (a *Announced) Queued() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

func (a *Announced) evict(now time.Time) {
	cutoff := now.Add(-a.ttl)

	for len(a.order) > 0 {
		oldest := a.order[0]
		at, ok := a.marks[oldest.bill]
		// A re-marked bill has a newer entry further along the queue.
		current := ok && at.Equal(oldest.at)
		if current && len(a.marks) <= a.capacity && !oldest.at.Before(cutoff) {
			return
		}

		a.order = a.order[1:]
		if current {
			delete(a.marks, oldest.bill)
		}
	}
}
