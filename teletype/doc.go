// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package teletype drives one two-case teleprinter line.
//
// A Transport owns everything stateful about the line: the output and
// input case (shift) states, the output line buffer, and the
// inactivity flush timer. Callers hand it text; it emits the minimal
// 5-bit code stream — a shift code only when the required case
// actually differs from the line's current case — and reports each
// completed line to a delivery sink, either when a terminator is
// written or when the line has sat partially printed for the flush
// delay.
//
// The input direction runs as a dedicated goroutine in blocking reads
// against the device, tracks the keyboard's case from received shift
// codes, and hands decoded keystrokes to a channel.
//
// Devices are deliberately dumb: a Device moves code points and knows
// nothing about cases or lines. teletype/console emulates a teleprinter
// on a terminal; teletype/serial opens a real 5-bit current-loop port.
package teletype
