// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package baudot

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Code is a 5-bit code point, 0 through 31.
type Code byte

// Reserved and both-case code points. The assignments below hold in
// every charset; only the glyph positions vary between them.
const (
	// CodeBlank is the all-zero code. It prints nothing and is the
	// break/attention stand-in on the keyboard path.
	CodeBlank Code = 0x00

	// CodeLF is line feed, valid in both cases.
	CodeLF Code = 0x02

	// CodeSpace is the space bar, valid in both cases.
	CodeSpace Code = 0x04

	// CodeCR is carriage return, valid in both cases.
	CodeCR Code = 0x08

	// CodeFigures shifts the receiver to FIGURES case.
	CodeFigures Code = 0x1B

	// CodeLetters shifts the receiver to LETTERS case. All five bits
	// set: over-punching any character yields it, which is why it
	// doubles as the destructive rubout on the keyboard path.
	CodeLetters Code = 0x1F
)

// Shift is the case state of one direction of a line.
type Shift int8

const (
	// ShiftUnknown is the state before any shift code has crossed the
	// line. Every cased character differs from it.
	ShiftUnknown Shift = iota

	// ShiftLetters is LETTERS case.
	ShiftLetters

	// ShiftFigures is FIGURES case.
	ShiftFigures

	// ShiftAny marks characters valid in both cases. Encode returns
	// it for blank, space, CR, and LF; those never force a shift code
	// and never change the line's state.
	ShiftAny
)

func (s Shift) String() string {
	switch s {
	case ShiftLetters:
		return "letters"
	case ShiftFigures:
		return "figures"
	case ShiftAny:
		return "any"
	default:
		return "unknown"
	}
}

// UnrepresentableError reports a rune with no code point in the
// charset. The transport logs and skips these rather than failing the
// line.
type UnrepresentableError struct {
	Charset string
	Rune    rune
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("baudot: no %s code for %q", e.Charset, e.Rune)
}

// IsUnrepresentable reports whether err is an UnrepresentableError.
func IsUnrepresentable(err error) bool {
	var unrepresentable *UnrepresentableError
	return errors.As(err, &unrepresentable)
}

// codepoint is one entry of a charset's reverse index.
type codepoint struct {
	code  Code
	shift Shift
}

// Charset is one assignment of glyphs to the 32 code points: a letters
// table, a figures table, and the reverse index built from them. The
// package-level ITA2 and USTTY values are the only instances.
type Charset struct {
	name    string
	letters [32]rune
	figures [32]rune
	index   map[rune]codepoint
}

// Name returns the charset's configuration name ("ita2" or "ustty").
func (cs *Charset) Name() string { return cs.name }

// Encode maps a character to its code point and the case it requires.
// Lowercase letters fold to upper. Characters valid in both cases
// return ShiftAny. Characters outside the charset fail with
// *UnrepresentableError.
func (cs *Charset) Encode(ch rune) (Code, Shift, error) {
	cp, ok := cs.index[unicode.ToUpper(ch)]
	if !ok {
		return 0, ShiftUnknown, &UnrepresentableError{Charset: cs.name, Rune: ch}
	}
	return cp.code, cp.shift, nil
}

// Decode maps a received code point to its glyph under the given case.
// The two shift code points carry no glyph and return false; every
// other code point decodes. Under ShiftUnknown the letters table
// applies — hardware comes up assuming LETTERS case.
func (cs *Charset) Decode(code Code, shift Shift) (rune, bool) {
	code &= 0x1F
	if code == CodeLetters || code == CodeFigures {
		return 0, false
	}
	if shift == ShiftFigures {
		return cs.figures[code], true
	}
	return cs.letters[code], true
}

// ByName returns the charset for a configuration name,
// case-insensitively. Known names are "ita2" and "ustty".
func ByName(name string) (*Charset, error) {
	switch strings.ToLower(name) {
	case "ita2":
		return ITA2, nil
	case "ustty":
		return USTTY, nil
	default:
		return nil, fmt.Errorf("baudot: unknown charset %q (want ita2 or ustty)", name)
	}
}

// newCharset builds the reverse index. Characters present at the same
// code point in both tables index as ShiftAny; the shift code points
// are never indexed.
func newCharset(name string, letters, figures [32]rune) *Charset {
	cs := &Charset{name: name, letters: letters, figures: figures}
	cs.index = make(map[rune]codepoint, 64)
	for code := Code(0); code < 32; code++ {
		if code == CodeLetters || code == CodeFigures {
			continue
		}
		cs.index[letters[code]] = codepoint{code: code, shift: ShiftLetters}
	}
	for code := Code(0); code < 32; code++ {
		if code == CodeLetters || code == CodeFigures {
			continue
		}
		ch := figures[code]
		if existing, ok := cs.index[ch]; ok && existing.code == code {
			cs.index[ch] = codepoint{code: code, shift: ShiftAny}
			continue
		}
		cs.index[ch] = codepoint{code: code, shift: ShiftFigures}
	}
	return cs
}
