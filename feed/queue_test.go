// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/teleprint-works/teleprint/lib/testutil"
)

func TestQueueFIFOAcrossFeeds(t *testing.T) {
	t.Parallel()
	queue := NewQueue()

	queue.Push(Item{Feed: "wx", Body: "WEATHER OK"})
	queue.Push(Item{Feed: "sms", Body: "SMS HI"})
	queue.Push(Item{Feed: "wx", Body: "WEATHER AGAIN"})

	ctx := context.Background()
	want := []string{"WEATHER OK", "SMS HI", "WEATHER AGAIN"}
	for i, w := range want {
		item, err := queue.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if item.Body != w {
			t.Fatalf("item %d body = %q, want %q", i, item.Body, w)
		}
	}
	if got := queue.Len(); got != 0 {
		t.Fatalf("Len() = %d after draining, want 0", got)
	}
}

func TestQueueAssignsMonotonicSequence(t *testing.T) {
	t.Parallel()
	queue := NewQueue()

	first := queue.Push(Item{Feed: "wx"})
	second := queue.Push(Item{Feed: "sms"})
	if first.Seq == 0 {
		t.Fatal("Push left Seq zero")
	}
	if second.Seq <= first.Seq {
		t.Fatalf("sequence not monotonic: %d then %d", first.Seq, second.Seq)
	}
}

func TestQueueNextBlocksUntilPush(t *testing.T) {
	t.Parallel()
	queue := NewQueue()

	got := make(chan Item, 1)
	go func() {
		item, err := queue.Next(context.Background())
		if err != nil {
			return
		}
		got <- item
	}()

	// Give the consumer a moment to block, then push.
	time.Sleep(10 * time.Millisecond)
	queue.Push(Item{Body: "LATE ARRIVAL"})

	item := testutil.RequireReceive(t, got, 5*time.Second, "blocked consumer wakeup")
	if item.Body != "LATE ARRIVAL" {
		t.Fatalf("body = %q, want %q", item.Body, "LATE ARRIVAL")
	}
}

func TestQueueNextHonorsCancellation(t *testing.T) {
	t.Parallel()
	queue := NewQueue()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := queue.Next(ctx)
		done <- err
	}()

	cancel()
	err := testutil.RequireReceive(t, done, 5*time.Second, "Next return after cancel")
	if err == nil {
		t.Fatal("Next returned nil error after cancellation")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	t.Parallel()
	queue := NewQueue()

	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				queue.Push(Item{Feed: "load"})
			}
		}()
	}
	wg.Wait()

	ctx := context.Background()
	seen := make(map[uint64]bool)
	lastSeq := uint64(0)
	for i := 0; i < producers*perProducer; i++ {
		item, err := queue.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if seen[item.Seq] {
			t.Fatalf("sequence %d delivered twice", item.Seq)
		}
		seen[item.Seq] = true
		if item.Seq <= lastSeq {
			t.Fatalf("sequence went backwards: %d after %d", item.Seq, lastSeq)
		}
		lastSeq = item.Seq
	}
}
