// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package teletype

import (
	"context"

	"github.com/teleprint-works/teleprint/baudot"
)

// Device is the byte-level surface of a teleprinter line. It moves
// 5-bit code points in both directions and nothing else: case
// tracking, line buffering, and flushing live in the Transport.
type Device interface {
	// WriteCodes sends a batch of code points down the line in order.
	// It blocks until the device has accepted all of them, which on a
	// real current-loop port means seconds per line.
	WriteCodes(ctx context.Context, codes []baudot.Code) error

	// ReadCodes blocks until the operator produces input, then
	// returns one keystroke's worth of code points: a character with
	// any case shift the device inserted before it, a bare code for a
	// control key, or a typed line ending in CR.
	ReadCodes(ctx context.Context) ([]baudot.Code, error)

	// Close releases the device.
	Close() error
}
