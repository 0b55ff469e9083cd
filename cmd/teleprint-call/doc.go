// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Teleprint-call is a one-shot client for the teleprint-daemon
// control socket. It sends a single CBOR request and renders the
// reply as JSON, so shell scripts and cron jobs can drive the daemon
// without speaking the wire format themselves.
package main
