// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"errors"
	"fmt"
)

// TransientError reports a fetch or acknowledgement attempt that
// failed for reasons expected to clear on their own: network trouble,
// timeouts, the source being down. The scheduler retries on the next
// interval with the cursor unchanged.
type TransientError struct {
	// Feed is the name of the feed that failed.
	Feed string

	// Op describes the attempted operation ("fetching messages",
	// "recording printed receipt").
	Op string

	// Err is the underlying cause.
	Err error
}

func (err *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", err.Feed, err.Op, err.Err)
}

func (err *TransientError) Unwrap() error { return err.Err }

// FormatError reports a source reply the adapter could not interpret.
// The scheduler surfaces it as a single printed diagnostic and leaves
// the cursor where it was, so the next cycle retries the same fetch
// instead of silently skipping past the bad state.
type FormatError struct {
	// Feed is the name of the feed that failed.
	Feed string

	// Detail describes what was wrong with the reply.
	Detail string

	// Err is the underlying parse error, when one exists.
	Err error
}

func (err *FormatError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%s: %s: %v", err.Feed, err.Detail, err.Err)
	}
	return fmt.Sprintf("%s: %s", err.Feed, err.Detail)
}

func (err *FormatError) Unwrap() error { return err.Err }

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFormat reports whether err is a FormatError.
func IsFormat(err error) bool {
	var format *FormatError
	return errors.As(err, &format)
}
