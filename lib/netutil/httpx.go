// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities.
//
// The response helpers (ReadResponse, DecodeResponse, ErrorBody) bound
// all body reads at MaxResponseSize so a misbehaving upstream cannot
// exhaust memory. They are for the small documents the feed clients
// consume — forecast XML, relay JSON, gazetteer lookups — not for
// streaming transfers.
//
// IsExpectedCloseError classifies errors seen during normal connection
// teardown on the control socket.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on response body reads: 16 MB. Forecast
// documents and relay replies are orders of magnitude smaller; the
// limit is generous so it never interferes with normal operation.
const MaxResponseSize int64 = 16 << 20

// ReadResponse reads a response body up to MaxResponseSize bytes. Use
// instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON response body (up to MaxResponseSize
// bytes) and decodes it into v. Replaces the io.ReadAll + json.Unmarshal
// pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic messages. Read errors are ignored — a partial
// or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
