// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"time"
)

// Feed is the capability contract every source adapter provides to the
// scheduler. Implementations own their cursor semantics and their
// pending-acknowledgement set; the scheduler owns the cycle timing and
// the current cursor value.
type Feed interface {
	// Name identifies the feed. Unique within a scheduler; items carry
	// it so the consumer can route acknowledgements back.
	Name() string

	// PollInterval is the cadence of this feed's cycle, measured from
	// cycle start to cycle start.
	PollInterval() time.Duration

	// Idle reports whether the most recent poll produced zero new
	// items. The scheduler resets an idle feed's cursor to CursorStart
	// so server-revived items can reappear — strictly lowest priority,
	// since it only happens when nothing new is flowing.
	Idle(now time.Time) bool

	// FetchBatch returns the items after cursor, in order, and the
	// cursor for the next call. Failures are *TransientError (retry
	// next cycle, cursor unchanged) or *FormatError (one printed
	// diagnostic, cursor unchanged).
	FetchBatch(ctx context.Context, cursor Cursor) ([]Item, Cursor, error)

	// Acknowledge records that the item reached paper. Called by the
	// consumer after transport confirmation; must never block on the
	// network.
	Acknowledge(item Item)

	// DrainAcknowledgements notifies the source for every pending
	// acknowledgement in FIFO order, stopping at the first transient
	// failure. Reports whether the backlog fully flushed.
	DrainAcknowledgements(ctx context.Context) bool
}

// Sender is the optional capability of feeds that can originate
// outbound messages (the SMS relay can; the weather service cannot).
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// AckReporter is the optional capability of feeds that expose their
// outstanding acknowledgement backlog, for status reporting.
type AckReporter interface {
	PendingAcks() int
}
