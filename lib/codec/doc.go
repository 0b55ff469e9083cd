// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding configuration.
//
// The daemon uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the SMS relay and gazetteer
//     services, the feed catalog, CLI output, and the delivery journal.
//   - CBOR for the local control protocol: the daemon's Unix control
//     socket and its clients.
//
// This package provides the shared CBOR modes so every package encodes
// identically without duplicating configuration. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2): sorted map keys, smallest
// integer encoding, no indefinite-length items. Same logical data
// always produces identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the control socket):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Control protocol types carry `json` struct tags: fxamacker/cbor v2
// reads json tags when cbor tags are absent, so one tag controls field
// naming and omitempty for both formats, and the same types serve the
// CLI's JSON rendering of responses.
package codec
