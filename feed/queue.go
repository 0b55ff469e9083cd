// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"sync"
)

// Queue is the shared FIFO between all polling loops and the single
// consumer. Unbounded: the device drains at under fifty bits per
// second, and the sources are humans and an hourly forecast; backlog
// is measured in items, not memory.
//
// Arrival order is preserved across feeds: first pushed, first
// printed, no cross-feed priority.
//
// The notify channel (capacity 1) wakes the consumer when items
// arrive; Next selects on it alongside context cancellation.
//
// Thread-safe: all methods may be called concurrently.
type Queue struct {
	mu      sync.Mutex
	items   []Item
	lastSeq uint64
	notify  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends the item, stamping its arrival sequence number, and
// returns the stamped copy. Never blocks.
func (q *Queue) Push(item Item) Item {
	q.mu.Lock()
	q.lastSeq++
	item.Seq = q.lastSeq
	q.items = append(q.items, item)
	q.mu.Unlock()

	// Non-blocking signal to the consumer.
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return item
}

// Next removes and returns the oldest item, blocking until one is
// available or the context ends.
func (q *Queue) Next(ctx context.Context) (Item, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = Item{} // release for GC
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Item{}, ctx.Err()
		}
	}
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
