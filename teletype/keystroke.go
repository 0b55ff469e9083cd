// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package teletype

// KeystrokeKind classifies one decoded keyboard event.
type KeystrokeKind int

const (
	// KeyRune is a printable character.
	KeyRune KeystrokeKind = iota

	// KeyLine is the carriage return ending a typed line.
	KeyLine

	// KeyRubout erases the previous character. On the wire it is the
	// all-bits code.
	KeyRubout

	// KeyBreak is the attention signal, the all-zero code.
	KeyBreak
)

func (k KeystrokeKind) String() string {
	switch k {
	case KeyRune:
		return "rune"
	case KeyLine:
		return "line"
	case KeyRubout:
		return "rubout"
	case KeyBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Keystroke is one decoded keyboard event from the input loop.
type Keystroke struct {
	Kind KeystrokeKind

	// Rune holds the character for KeyRune events.
	Rune rune
}
