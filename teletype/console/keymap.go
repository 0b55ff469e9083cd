// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/teleprint-works/teleprint/baudot"
)

// Raw-mode byte values with special meaning on the emulated keyboard.
const (
	keyAbort     = 0x03 // Ctrl-C
	keyEscape    = 0x1B
	keyBackspace = 0x08
	keyDelete    = 0x7F
)

// keymap turns raw terminal input into the code batches a mechanical
// keyboard would send, inserting a shift code whenever the typed
// character's case differs from the keyboard's running case.
type keymap struct {
	charset *baudot.Charset
	shift   baudot.Shift
	logger  *slog.Logger
	abort   func()
}

// translate maps one read's worth of bytes to codes plus the local
// echo. Input spanning several characters is closed with a line-end
// code so the far machine resynchronizes; a single keystroke is sent
// bare, even when shift insertion makes it two codes.
func (k *keymap) translate(data []byte) (codes []baudot.Code, echo string) {
	var echoed strings.Builder
	characters := 0
	terminated := false

	for _, ch := range string(data) {
		terminated = false
		switch ch {
		case keyAbort:
			k.abort()
			return nil, ""
		case keyEscape:
			codes = append(codes, baudot.CodeBlank)
		case keyBackspace, keyDelete:
			// The all-bits code goes out bare. On the wire it doubles
			// as the letters shift, so the running case follows it.
			codes = append(codes, baudot.CodeLetters)
			k.shift = baudot.ShiftLetters
			echoed.WriteString("\b \b")
		case '\r', '\n':
			codes = append(codes, baudot.CodeCR)
			echoed.WriteString("\r\n")
			terminated = true
		default:
			code, required, err := k.charset.Encode(ch)
			if err != nil {
				k.logger.Warn("key has no code point, skipped",
					"key", string(ch), "charset", k.charset.Name())
				continue
			}
			if required != baudot.ShiftAny && required != k.shift {
				shiftCode := baudot.CodeLetters
				if required == baudot.ShiftFigures {
					shiftCode = baudot.CodeFigures
				}
				codes = append(codes, shiftCode)
				k.shift = required
			}
			codes = append(codes, code)
			echoed.WriteRune(unicode.ToUpper(ch))
			characters++
		}
	}

	if characters > 1 && !terminated {
		codes = append(codes, baudot.CodeCR)
		echoed.WriteString("\r\n")
	}
	return codes, echoed.String()
}
