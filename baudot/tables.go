// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package baudot

// The letters case is identical in every assignment; only the figures
// case varies. Code points 0x1B and 0x1F are the shift codes and hold
// placeholder zeros here — they are never read as glyphs.
var lettersTable = [32]rune{
	'\x00', 'E', '\n', 'A', ' ', 'S', 'I', 'U', // 0x00–0x07
	'\r', 'D', 'R', 'J', 'N', 'F', 'C', 'K', // 0x08–0x0F
	'T', 'Z', 'L', 'W', 'H', 'Y', 'P', 'Q', // 0x10–0x17
	'O', 'B', 'G', 0, 'M', 'X', 'V', 0, // 0x18–0x1F
}

// ITA2 is International Telegraph Alphabet No. 2: apostrophe at 0x05,
// bell at 0x0B, WRU (who-are-you, ENQ) at 0x09, plus, pound sterling,
// and equals in the figures case.
var ITA2 = newCharset("ita2", lettersTable, [32]rune{
	'\x00', '3', '\n', '-', ' ', '\'', '8', '7', // 0x00–0x07
	'\r', '\x05', '4', '\a', ',', '!', ':', '(', // 0x08–0x0F
	'5', '+', ')', '2', '£', '6', '0', '1', // 0x10–0x17
	'9', '?', '&', 0, '.', '/', '=', 0, // 0x18–0x1F
})

// USTTY is the US domestic assignment: bell moves to 0x05, and the
// ITA2 WRU, apostrophe, plus, pound, and equals positions become
// dollar, apostrophe, double quote, hash, and semicolon.
var USTTY = newCharset("ustty", lettersTable, [32]rune{
	'\x00', '3', '\n', '-', ' ', '\a', '8', '7', // 0x00–0x07
	'\r', '$', '4', '\'', ',', '!', ':', '(', // 0x08–0x0F
	'5', '"', ')', '2', '#', '6', '0', '1', // 0x10–0x17
	'9', '?', '&', 0, '.', '/', ';', 0, // 0x18–0x1F
})
