// Package activitylog provides the fixed-capacity, newest-first sequence used
// to retain the most recent activity entries.
package activitylog

import "github.com/fairyhunter13/inventory-service/internal/model"

// DefaultCapacity is the number of entries the bounded log retains.
const DefaultCapacity = 50

// Ring is a fixed-capacity deque of activities. Push places an entry at the
// front; once full, each push evicts the oldest entry at the back.
//
// Ring is not safe for concurrent use.
type Ring struct {
	buf   []model.Activity
	head  int // index of the newest entry
	count int
}

// NewRing returns an empty Ring. A non-positive capacity falls back to
// DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]model.Activity, capacity)}
}

// FromNewestFirst builds a Ring from entries ordered newest-first, keeping at
// most the ring's capacity of the newest ones.
func FromNewestFirst(capacity int, entries []model.Activity) *Ring {
	r := NewRing(capacity)
	if len(entries) > len(r.buf) {
		entries = entries[:len(r.buf)]
	}
	for i := len(entries) - 1; i >= 0; i-- {
		r.Push(entries[i])
	}
	return r
}

// Push adds a as the newest entry and reports the entry it evicted, if any.
func (r *Ring) Push(a model.Activity) (evicted model.Activity, ok bool) {
	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	if r.count == len(r.buf) {
		evicted, ok = r.buf[r.head], true
	} else {
		r.count++
	}
	r.buf[r.head] = a
	return evicted, ok
}

// Len returns the number of retained entries.
func (r *Ring) Len() int { return r.count }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// NewestFirst returns a copy of the retained entries, newest first.
func (r *Ring) NewestFirst() []model.Activity {
	out := make([]model.Activity, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
