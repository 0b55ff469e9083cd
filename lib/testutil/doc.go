// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with a time.After fallback) so
// individual tests never hang silently. These helpers are the only
// place the test suite touches the real wall clock; everything timed is
// driven through a fake clock.
//
// [SocketDir] creates a short-pathed temporary directory in /tmp for
// Unix domain sockets, which are limited to 108-byte paths.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
