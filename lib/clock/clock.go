// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time so the flush timer and the poll loops can
// be driven deterministically in tests.
package clock

import "time"

// Clock is the time source injected into every component that schedules
// work. Production code uses Real(); tests use Fake() and advance it by
// hand.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once
	// duration d has elapsed. If d <= 0 the channel receives
	// immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc schedules f to run after duration d and returns a
	// Timer whose Stop and Reset control the pending call. The Timer's
	// C field is nil, matching time.AfterFunc.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the calling goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Timer is a scheduled call created by AfterFunc.
type Timer struct {
	// C is nil for AfterFunc timers, mirroring the time package.
	C <-chan time.Time

	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop cancels the pending call. It reports whether the call was still
// pending; false means the timer already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset re-arms the timer to fire after duration d, reviving it if it
// has already fired. It reports whether the timer was active.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{
		stopFunc:  timer.Stop,
		resetFunc: timer.Reset,
	}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
