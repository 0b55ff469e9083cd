// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" with a monotonically
// increasing N. Use it instead of time.Now() when tests need message
// bodies or identifiers that must stay distinguishable.
//
//	body := testutil.UniqueID("msg") // "msg-1", "msg-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
