// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package baudot

import (
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, cs := range []*Charset{ITA2, USTTY} {
		t.Run(cs.Name(), func(t *testing.T) {
			for ch := range cs.index {
				code, shift, err := cs.Encode(ch)
				if err != nil {
					t.Fatalf("Encode(%q): %v", ch, err)
				}

				// A both-case character must survive decoding under
				// either case; a cased character under its own.
				shifts := []Shift{shift}
				if shift == ShiftAny {
					shifts = []Shift{ShiftLetters, ShiftFigures}
				}
				for _, s := range shifts {
					got, ok := cs.Decode(code, s)
					if !ok {
						t.Fatalf("Decode(%#02x, %v) returned no glyph for %q", code, s, ch)
					}
					if got != ch {
						t.Errorf("round trip %q -> %#02x -> %q under %v", ch, code, got, s)
					}
				}
			}
		})
	}
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for _, cs := range []*Charset{ITA2, USTTY} {
		t.Run(cs.Name(), func(t *testing.T) {
			for code := Code(0); code < 32; code++ {
				if code == CodeLetters || code == CodeFigures {
					continue
				}
				for _, s := range []Shift{ShiftLetters, ShiftFigures} {
					ch, ok := cs.Decode(code, s)
					if !ok {
						t.Fatalf("Decode(%#02x, %v) returned no glyph", code, s)
					}
					gotCode, gotShift, err := cs.Encode(ch)
					if err != nil {
						t.Fatalf("Encode(%q) from code %#02x: %v", ch, code, err)
					}
					if gotCode != code {
						t.Errorf("code %#02x decoded to %q, re-encoded to %#02x", code, ch, gotCode)
					}
					if gotShift != s && gotShift != ShiftAny {
						t.Errorf("code %#02x under %v re-encoded with shift %v", code, s, gotShift)
					}
				}
			}
		})
	}
}

func TestLowercaseFoldsToUpper(t *testing.T) {
	lowerCode, lowerShift, err := USTTY.Encode('q')
	if err != nil {
		t.Fatalf("Encode('q'): %v", err)
	}
	upperCode, upperShift, err := USTTY.Encode('Q')
	if err != nil {
		t.Fatalf("Encode('Q'): %v", err)
	}
	if lowerCode != upperCode || lowerShift != upperShift {
		t.Errorf("'q' encoded as (%#02x, %v), 'Q' as (%#02x, %v)",
			lowerCode, lowerShift, upperCode, upperShift)
	}
}

func TestBothCaseCharacters(t *testing.T) {
	want := map[rune]Code{
		'\x00': CodeBlank,
		'\n':   CodeLF,
		' ':    CodeSpace,
		'\r':   CodeCR,
	}
	for ch, wantCode := range want {
		code, shift, err := USTTY.Encode(ch)
		if err != nil {
			t.Fatalf("Encode(%q): %v", ch, err)
		}
		if code != wantCode {
			t.Errorf("Encode(%q) code = %#02x, want %#02x", ch, code, wantCode)
		}
		if shift != ShiftAny {
			t.Errorf("Encode(%q) shift = %v, want any", ch, shift)
		}
	}
}

func TestUnrepresentable(t *testing.T) {
	for _, ch := range []rune{'~', 'é', '%', '*'} {
		_, _, err := USTTY.Encode(ch)
		if err == nil {
			t.Fatalf("Encode(%q) should fail", ch)
		}
		if !IsUnrepresentable(err) {
			t.Errorf("Encode(%q) error %v is not an UnrepresentableError", ch, err)
		}
		var unrepresentable *UnrepresentableError
		if !errors.As(err, &unrepresentable) {
			t.Fatalf("Encode(%q) error %v does not unwrap", ch, err)
		}
		if unrepresentable.Rune != ch {
			t.Errorf("error rune = %q, want %q", unrepresentable.Rune, ch)
		}
	}
}

func TestShiftCodesCarryNoGlyph(t *testing.T) {
	for _, cs := range []*Charset{ITA2, USTTY} {
		for _, code := range []Code{CodeLetters, CodeFigures} {
			for _, s := range []Shift{ShiftUnknown, ShiftLetters, ShiftFigures} {
				if _, ok := cs.Decode(code, s); ok {
					t.Errorf("%s: Decode(%#02x, %v) returned a glyph for a shift code", cs.Name(), code, s)
				}
			}
		}

		// Encoding must never produce a shift code as a character.
		for ch := range cs.index {
			code, _, err := cs.Encode(ch)
			if err != nil {
				t.Fatalf("Encode(%q): %v", ch, err)
			}
			if code == CodeLetters || code == CodeFigures {
				t.Errorf("%s: Encode(%q) produced reserved code %#02x", cs.Name(), ch, code)
			}
		}
	}
}

func TestCharsetDifferences(t *testing.T) {
	// Dollar exists only in the US assignment.
	code, shift, err := USTTY.Encode('$')
	if err != nil {
		t.Fatalf("USTTY Encode('$'): %v", err)
	}
	if code != 0x09 || shift != ShiftFigures {
		t.Errorf("USTTY '$' = (%#02x, %v), want (0x09, figures)", code, shift)
	}
	if _, _, err := ITA2.Encode('$'); !IsUnrepresentable(err) {
		t.Errorf("ITA2 Encode('$') = %v, want unrepresentable", err)
	}

	// Pound sterling exists only in the international assignment.
	code, shift, err = ITA2.Encode('£')
	if err != nil {
		t.Fatalf("ITA2 Encode('£'): %v", err)
	}
	if code != 0x14 || shift != ShiftFigures {
		t.Errorf("ITA2 '£' = (%#02x, %v), want (0x14, figures)", code, shift)
	}
	if _, _, err := USTTY.Encode('£'); !IsUnrepresentable(err) {
		t.Errorf("USTTY Encode('£') = %v, want unrepresentable", err)
	}

	// The bell rings from different positions.
	ustty, _, err := USTTY.Encode('\a')
	if err != nil {
		t.Fatalf("USTTY Encode(bell): %v", err)
	}
	ita2, _, err := ITA2.Encode('\a')
	if err != nil {
		t.Fatalf("ITA2 Encode(bell): %v", err)
	}
	if ustty != 0x05 || ita2 != 0x0B {
		t.Errorf("bell codes = USTTY %#02x, ITA2 %#02x; want 0x05, 0x0b", ustty, ita2)
	}
}

func TestDecodeUnknownShiftUsesLetters(t *testing.T) {
	ch, ok := USTTY.Decode(0x01, ShiftUnknown)
	if !ok {
		t.Fatal("Decode(0x01, unknown) returned no glyph")
	}
	if ch != 'E' {
		t.Errorf("Decode(0x01, unknown) = %q, want 'E'", ch)
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]*Charset{
		"ita2":  ITA2,
		"ITA2":  ITA2,
		"ustty": USTTY,
		"UStty": USTTY,
	} {
		got, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ByName(%q) = %s, want %s", name, got.Name(), want.Name())
		}
	}

	if _, err := ByName("ascii"); err == nil {
		t.Error("ByName(\"ascii\") should fail")
	}
}
