// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import "sync"

// Acks is a per-adapter queue of items whose print is confirmed but
// whose source-side "mark done" has not yet been sent. The consumer
// loop populates it; only the owning adapter's poll cycle drains it,
// so a slow source never stalls the printer.
//
// Thread-safe: all methods may be called concurrently.
type Acks struct {
	mu    sync.Mutex
	items []Item
}

// Add appends an item. Never blocks.
func (a *Acks) Add(item Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
}

// Drain calls fn for each pending item in FIFO order, removing items
// as fn succeeds. It stops at the first failure, leaving that item and
// everything behind it queued for the next cycle, and reports whether
// the queue fully drained.
func (a *Acks) Drain(fn func(Item) error) bool {
	for {
		a.mu.Lock()
		if len(a.items) == 0 {
			a.mu.Unlock()
			return true
		}
		item := a.items[0]
		a.mu.Unlock()

		if err := fn(item); err != nil {
			return false
		}

		a.mu.Lock()
		// The front is still our item: Add only appends, and drains
		// never run concurrently (one poll loop per adapter).
		a.items[0] = Item{} // release for GC
		a.items = a.items[1:]
		a.mu.Unlock()
	}
}

// Len returns the number of pending acknowledgements.
func (a *Acks) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}
