// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package feed turns per-source incremental polling protocols into one
// ordered stream of printable items.
//
// Each source implements the Feed contract: fetch items after a
// cursor, mark printed items done, report idleness. The Scheduler runs
// one polling loop per feed, funnels everything through a shared FIFO
// queue in arrival order, and drives a single consumer that prints
// each item and then acknowledges it to its origin feed. Sources never
// see each other: a wedged feed delays only its own items.
//
// Delivery is at-least-once end to end. The source keeps an item
// marked unprinted until its acknowledgement lands, so a crash between
// print and ack reprints the item rather than losing it. Duplicate
// acknowledgements are harmless by the source contract.
package feed
