// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package baudot translates between text and the 5-bit shift-keyed
// code spoken by two-case teleprinters.
//
// The code has 32 code points and two cases. Most code points name a
// letter in LETTERS case and a digit or punctuation mark in FIGURES
// case; which case applies is carried as receiver state, switched by
// the two reserved shift code points. Four code points (blank, space,
// carriage return, line feed) mean the same thing in both cases and
// never require a shift.
//
// Two character sets ship: [ITA2], the international assignment, and
// [USTTY], the US domestic variant that trades the ITA2 currency and
// accent positions for $, #, " and moves the bell. Pick one with
// [ByName] from configuration; both directions of a line must agree.
//
// The codec itself is stateless. Shift minimisation — deciding when a
// shift code must actually be transmitted — belongs to the transport,
// which owns the line's shift state.
package baudot
