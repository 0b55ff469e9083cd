// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// Production code accepts a Clock parameter instead of calling time.Now,
// time.After, time.AfterFunc, or time.Sleep directly. Real() provides
// standard library behavior; Fake() provides a deterministic clock for
// tests that advances only when told to.
//
// # Wiring Pattern
//
// Add a Clock field to structs that schedule work:
//
//	type Transport struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	t := &Transport{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	t := &Transport{clock: c}
//	// ... start goroutines ...
//	c.WaitForTimers(1) // wait for a timer to register
//	c.Advance(500 * time.Millisecond) // fire it deterministically
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing the clock, which is what makes the inactivity
// flush and poll-interval tests exact rather than sleep-and-hope.
package clock
