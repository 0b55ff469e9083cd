// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teleprint-works/teleprint/baudot"
)

// Dark ink on aged paper. lipgloss degrades this to plain text on
// terminals without color support.
var inkStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("235")).
	Background(lipgloss.Color("230"))

// paper renders received codes into the terminal byte stream, tracking
// the print head's case the way the real machine's typebasket does.
type paper struct {
	charset *baudot.Charset
	shift   baudot.Shift
	style   lipgloss.Style
}

func newPaper(charset *baudot.Charset) *paper {
	return &paper{
		charset: charset,
		shift:   baudot.ShiftUnknown,
		style:   inkStyle,
	}
}

// render decodes the batch into printable output. Shift codes move the
// typebasket and print nothing; the break code holds the line open
// with no paper motion; the bell character passes through unstyled so
// the terminal rings.
func (p *paper) render(codes []baudot.Code) string {
	var out strings.Builder
	var glyphs []rune

	flush := func() {
		if len(glyphs) == 0 {
			return
		}
		out.WriteString(p.style.Render(string(glyphs)))
		glyphs = nil
	}

	for _, code := range codes {
		switch code {
		case baudot.CodeLetters:
			p.shift = baudot.ShiftLetters
		case baudot.CodeFigures:
			p.shift = baudot.ShiftFigures
		case baudot.CodeCR:
			flush()
			out.WriteString("\r")
		case baudot.CodeLF:
			flush()
			out.WriteString("\n")
		case baudot.CodeBlank:
			// Break: no motion.
		default:
			ch, ok := p.charset.Decode(code, p.shift)
			if !ok {
				continue
			}
			if ch == '\a' {
				flush()
				out.WriteString("\a")
				continue
			}
			glyphs = append(glyphs, ch)
		}
	}
	flush()
	return out.String()
}
