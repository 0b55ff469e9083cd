// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package control is the daemon's operator surface: a CBOR
// request-response protocol on a local Unix socket for teleprint-call,
// and the keyboard command interpreter for operators at the machine
// itself.
//
// The socket handles one request per connection: the client writes a
// CBOR value, the server answers with a Response envelope, the
// connection closes. There is no authentication beyond filesystem
// permissions on the socket — it is a same-machine operator channel.
//
// Protocol types carry json struct tags: fxamacker/cbor reads them
// when cbor tags are absent, so the same types serve the wire format
// and teleprint-call's JSON rendering of replies.
package control

import (
	"context"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/codec"
)

// Actions understood by the control socket.
const (
	// ActionStatus reports daemon and per-feed state.
	ActionStatus = "status"

	// ActionPrint injects a text item into the print queue.
	ActionPrint = "print"

	// ActionSend originates an outbound message through the sending
	// feed.
	ActionSend = "send"
)

// Response is the wire envelope for every reply. Data is present only
// on success and only for actions that return something.
type Response struct {
	OK    bool             `json:"ok"`
	Error string           `json:"error,omitempty"`
	Data  codec.RawMessage `json:"data,omitempty"`
}

// PrintRequest is the payload of a print action.
type PrintRequest struct {
	Text string `json:"text"`
}

// SendRequest is the payload of a send action.
type SendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// StatusReply is the data of a status response.
type StatusReply struct {
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Device        string            `json:"device"`
	Charset       string            `json:"charset"`
	QueueDepth    int               `json:"queue_depth"`
	Printed       uint64            `json:"printed"`
	Feeds         []feed.FeedStatus `json:"feeds"`
}

// Daemon is the surface both operator channels drive. The daemon
// implements it over the scheduler and transport; tests fake it.
type Daemon interface {
	// Status snapshots the daemon for the status action.
	Status() StatusReply

	// Print injects an operator item into the shared print queue.
	Print(text string) error

	// Send originates an outbound message. It fails when no running
	// feed can send.
	Send(ctx context.Context, to, body string) error

	// Reprint re-injects the most recent weather report. It fails
	// when no report has printed yet.
	Reprint() error
}
