// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Item is one unit of displayable text. An adapter creates it from a
// successfully parsed fetch reply; it is immutable once queued.
type Item struct {
	// Feed is the originating feed's name.
	Feed string

	// Seq is the arrival number the shared queue assigns on Push.
	// Monotonic across all feeds; zero until queued.
	Seq uint64

	// From, Time, and Date are the display header fields. Semantic
	// values: the formatter decides their arrangement.
	From string
	Time string
	Date string

	// Body is the printable text.
	Body string

	// Error marks a diagnostic item; ErrorText carries its message.
	Error     bool
	ErrorText string

	// Serial is the source-assigned acknowledgement token. Zero means
	// the item carries none and needs no acknowledgement round-trip.
	Serial int64
}

// Digest returns a BLAKE3 hash over the item's print identity: the
// fields that determine what appears on paper. Seq and Serial are
// excluded, so a re-fetched copy of the same message digests
// identically. Used for duplicate suppression and journalling.
func (item Item) Digest() [32]byte {
	hasher := blake3.New()
	for _, field := range []string{
		item.Feed, item.From, item.Time, item.Date, item.Body, item.ErrorText,
	} {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(field)))
		hasher.Write(length[:])
		hasher.Write([]byte(field))
	}
	if item.Error {
		hasher.Write([]byte{1})
	} else {
		hasher.Write([]byte{0})
	}

	var digest [32]byte
	hasher.Sum(digest[:0])
	return digest
}

// Cursor is an adapter-owned position in a feed's item history. The
// source assigns the values; the scheduler only stores them and
// applies the reset sentinel.
type Cursor int64

// CursorStart makes the next fetch begin from the feed's earliest
// available item. Feeds start here, and idle feeds return here so
// server-revived items can reappear.
const CursorStart Cursor = -1
