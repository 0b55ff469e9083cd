// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	want := epoch.Add(5 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockAfterFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	select {
	case <-channel:
		t.Fatal("After fired before Advance")
	default:
	}

	clock.Advance(3 * time.Second)

	select {
	case <-channel:
	default:
		t.Fatal("After did not fire after Advance")
	}
}

func TestFakeClockAfterImmediateForNonPositive(t *testing.T) {
	clock := Fake(epoch)
	for _, d := range []time.Duration{0, -time.Second} {
		select {
		case <-clock.After(d):
		default:
			t.Fatalf("After(%v) should fire immediately", d)
		}
	}
}

func TestFakeClockAfterPartialAdvance(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(3 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before deadline")
	default:
	}

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
	default:
		t.Fatal("After did not fire at exact deadline")
	}
}

func TestFakeClockAfterFuncInvokesCallback(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	clock.AfterFunc(2*time.Second, func() {
		called.Store(true)
	})

	clock.Advance(1 * time.Second)
	if called.Load() {
		t.Fatal("AfterFunc fired before deadline")
	}

	clock.Advance(1 * time.Second)
	if !called.Load() {
		t.Fatal("AfterFunc did not fire at deadline")
	}
}

func TestFakeClockAfterFuncZeroDuration(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	clock.AfterFunc(0, func() {
		called.Store(true)
	})

	if !called.Load() {
		t.Fatal("AfterFunc(0) should call f synchronously")
	}
}

func TestFakeClockAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(2*time.Second, func() {
		called.Store(true)
	})

	if !timer.Stop() {
		t.Fatal("Stop() should return true for an unfired timer")
	}

	clock.Advance(5 * time.Second)
	if called.Load() {
		t.Fatal("callback invoked after Stop()")
	}
}

func TestFakeClockAfterFuncStopAlreadyFired(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(1*time.Second, func() {})

	clock.Advance(1 * time.Second)

	if timer.Stop() {
		t.Fatal("Stop() should return false for an already-fired timer")
	}
}

func TestFakeClockAfterFuncStopTwice(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(1*time.Second, func() {})

	if !timer.Stop() {
		t.Fatal("first Stop() should return true")
	}
	if timer.Stop() {
		t.Fatal("second Stop() should return false")
	}
}

func TestFakeClockAfterFuncReset(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(5*time.Second, func() {
		called.Store(true)
	})

	if !timer.Reset(2 * time.Second) {
		t.Fatal("Reset() should return true for an active timer")
	}

	clock.Advance(2 * time.Second)
	if !called.Load() {
		t.Fatal("callback should fire at the new deadline after Reset")
	}
}

func TestFakeClockAfterFuncResetRevivesFired(t *testing.T) {
	clock := Fake(epoch)
	var count atomic.Int32
	timer := clock.AfterFunc(1*time.Second, func() {
		count.Add(1)
	})

	clock.Advance(1 * time.Second)
	if got := count.Load(); got != 1 {
		t.Fatalf("fired %d times before Reset, want 1", got)
	}

	// Re-arming a fired timer puts it back in service. The line flush
	// timer cycles through fired and re-armed on every write.
	if timer.Reset(1 * time.Second) {
		t.Fatal("Reset() should return false for a fired timer")
	}
	clock.Advance(1 * time.Second)
	if got := count.Load(); got != 2 {
		t.Fatalf("fired %d times after revive, want 2", got)
	}
}

func TestFakeClockAfterFuncResetRevivesStopped(t *testing.T) {
	clock := Fake(epoch)
	var count atomic.Int32
	timer := clock.AfterFunc(1*time.Second, func() {
		count.Add(1)
	})

	// Disarm, then re-arm. The timer must come back exactly once, not
	// accumulate a second registration.
	timer.Stop()
	if timer.Reset(1 * time.Second) {
		t.Fatal("Reset() should return false for a stopped timer")
	}
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() after revive = %d, want 1", got)
	}

	clock.Advance(1 * time.Second)
	if got := count.Load(); got != 1 {
		t.Fatalf("fired %d times after revive, want 1", got)
	}
}

func TestFakeClockSleep(t *testing.T) {
	clock := Fake(epoch)

	done := make(chan struct{})
	go func() {
		clock.Sleep(3 * time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	clock.Advance(3 * time.Second)

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeClockSleepNonPositive(t *testing.T) {
	clock := Fake(epoch)
	clock.Sleep(0)
	clock.Sleep(-1 * time.Second)
}

func TestFakeClockWaitForTimers(t *testing.T) {
	clock := Fake(epoch)

	for i := 0; i < 3; i++ {
		go func() {
			clock.Sleep(5 * time.Second)
		}()
	}

	clock.WaitForTimers(3)

	if got := clock.PendingCount(); got != 3 {
		t.Fatalf("PendingCount() = %d, want 3", got)
	}
}

func TestFakeClockMultipleTimersFireInOrder(t *testing.T) {
	clock := Fake(epoch)

	var order []int
	var mu sync.Mutex

	clock.AfterFunc(3*time.Second, func() {
		mu.Lock()
		order = append(order, 3)
		mu.Unlock()
	})
	clock.AfterFunc(1*time.Second, func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	clock.AfterFunc(2*time.Second, func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})

	clock.Advance(5 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("callbacks fired in wrong order: %v, want [1 2 3]", order)
	}
}

func TestFakeClockOneShotDoesNotRepeat(t *testing.T) {
	clock := Fake(epoch)
	var count atomic.Int32
	clock.AfterFunc(1*time.Second, func() {
		count.Add(1)
	})

	clock.Advance(1 * time.Second)
	clock.Advance(1 * time.Second)
	clock.Advance(1 * time.Second)

	if got := count.Load(); got != 1 {
		t.Fatalf("AfterFunc fired %d times, want 1", got)
	}
}

func TestFakeClockPendingCountExcludesStopped(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.AfterFunc(1*time.Second, func() {})
	clock.AfterFunc(2*time.Second, func() {})

	if got := clock.PendingCount(); got != 2 {
		t.Fatalf("PendingCount() = %d, want 2", got)
	}

	timer.Stop()
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() after stop = %d, want 1", got)
	}
}

func TestFakeClockPendingCountExcludesFired(t *testing.T) {
	clock := Fake(epoch)
	clock.After(1 * time.Second)
	clock.After(3 * time.Second)

	if got := clock.PendingCount(); got != 2 {
		t.Fatalf("PendingCount() = %d, want 2", got)
	}

	clock.Advance(2 * time.Second)
	if got := clock.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() after first fires = %d, want 1", got)
	}
}

func TestFakeClockImplementsClock(t *testing.T) {
	var _ Clock = (*FakeClock)(nil)
}

func TestRealClockImplementsClock(t *testing.T) {
	var _ Clock = Real()
}

func TestFakeClockConcurrentAccess(t *testing.T) {
	clock := Fake(epoch)
	const goroutines = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			clock.After(1 * time.Second)
			clock.Now()
		}()
	}
	wg.Wait()

	clock.WaitForTimers(goroutines)
	clock.Advance(1 * time.Second)
}
