// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package teletype

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/teleprint-works/teleprint/baudot"
	"github.com/teleprint-works/teleprint/lib/clock"
)

const (
	// DefaultFlushDelay is how long a partial line may sit on the
	// platen before it is reported to the delivery sink anyway.
	DefaultFlushDelay = 500 * time.Millisecond

	// DefaultLineWidth is the carriage limit. Text that reaches it
	// hard-wraps; keeping prose inside it is the formatter's job.
	DefaultLineWidth = 72
)

// Config assembles a Transport. Device is required; every other field
// has a working default.
type Config struct {
	// Device is the teleprinter line.
	Device Device

	// Charset selects the code assignment. Defaults to baudot.USTTY.
	Charset *baudot.Charset

	// FlushDelay overrides DefaultFlushDelay.
	FlushDelay time.Duration

	// LineWidth overrides DefaultLineWidth.
	LineWidth int

	// Deliver, when set, receives each completed output line: on a
	// terminator, on a width wrap, or on an inactivity flush. It is
	// called with the transport lock held and must not call back into
	// the Transport.
	Deliver func(line string)

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Transport drives one teleprinter line: it owns the output case, the
// input case, the line buffer, and the flush timer. Safe for
// concurrent use; one mutex serialises printing and flushing, so at
// most one flush agent touches the line buffer at a time.
type Transport struct {
	device     Device
	charset    *baudot.Charset
	flushDelay time.Duration
	lineWidth  int
	deliver    func(string)
	clock      clock.Clock
	logger     *slog.Logger

	mu            sync.Mutex
	outShift      baudot.Shift
	line          []rune
	flushTimer    *clock.Timer
	flushDeadline time.Time
}

// New validates the config and returns a Transport. The line starts
// with the output case unknown, so the first cased character always
// carries its shift code.
func New(config Config) (*Transport, error) {
	if config.Device == nil {
		return nil, fmt.Errorf("teletype: config requires a Device")
	}
	t := &Transport{
		device:     config.Device,
		charset:    config.Charset,
		flushDelay: config.FlushDelay,
		lineWidth:  config.LineWidth,
		deliver:    config.Deliver,
		clock:      config.Clock,
		logger:     config.Logger,
		outShift:   baudot.ShiftUnknown,
	}
	if t.charset == nil {
		t.charset = baudot.USTTY
	}
	if t.flushDelay <= 0 {
		t.flushDelay = DefaultFlushDelay
	}
	if t.lineWidth <= 0 {
		t.lineWidth = DefaultLineWidth
	}
	if t.clock == nil {
		t.clock = clock.Real()
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t, nil
}

// Print encodes text onto the line with minimal shift insertion: a
// shift code goes out only when the next character's case differs from
// the line's current case. Newlines become CR LF and flush the line
// buffer; any printed character re-arms the inactivity timer.
// Characters the charset cannot represent are logged and skipped.
//
// Print returns once the device has accepted the whole batch; a nil
// return is the delivery confirmation the consumer acknowledges
// against.
func (t *Transport) Print(ctx context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	text = strings.ReplaceAll(text, "\r\n", "\n")

	// Encode against shadow state, committed only if the write
	// succeeds.
	shift := t.outShift
	line := append([]rune(nil), t.line...)
	var codes []baudot.Code
	var completed []string

	for _, ch := range text {
		if ch == '\n' || ch == '\r' {
			codes = append(codes, baudot.CodeCR, baudot.CodeLF)
			completed = append(completed, string(line))
			line = nil
			continue
		}

		code, required, err := t.charset.Encode(ch)
		if err != nil {
			t.logger.Warn("dropping unprintable character",
				"char", string(ch), "charset", t.charset.Name())
			continue
		}
		if required != baudot.ShiftAny && required != shift {
			shiftCode := baudot.CodeLetters
			if required == baudot.ShiftFigures {
				shiftCode = baudot.CodeFigures
			}
			codes = append(codes, shiftCode)
			shift = required
		}
		codes = append(codes, code)
		line = append(line, unicode.ToUpper(ch))

		if len(line) >= t.lineWidth {
			codes = append(codes, baudot.CodeCR, baudot.CodeLF)
			completed = append(completed, string(line))
			line = nil
		}
	}

	if len(codes) == 0 {
		return nil
	}

	if err := t.device.WriteCodes(ctx, codes); err != nil {
		// The batch may have landed partially, leaving the paper's
		// case unknowable. Force a shift ahead of the next cased
		// character.
		t.outShift = baudot.ShiftUnknown
		return fmt.Errorf("teletype: writing %d codes: %w", len(codes), err)
	}

	t.outShift = shift
	t.line = line
	for _, l := range completed {
		t.deliverLocked(l)
	}

	// Timer automaton: pending with a fresh deadline while a partial
	// line exists, idle otherwise.
	if len(t.line) > 0 {
		t.flushDeadline = t.clock.Now().Add(t.flushDelay)
		if t.flushTimer == nil {
			t.flushTimer = t.clock.AfterFunc(t.flushDelay, t.flushExpired)
		} else {
			t.flushTimer.Reset(t.flushDelay)
		}
	} else if t.flushTimer != nil {
		t.flushTimer.Stop()
	}

	return nil
}

// Println prints text followed by a line terminator.
func (t *Transport) Println(ctx context.Context, text string) error {
	return t.Print(ctx, text+"\n")
}

// flushExpired runs when the inactivity timer fires: the operator has
// stared at a partial line long enough.
func (t *Transport) flushExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.line) == 0 {
		return
	}
	// A write between expiry and this call refreshed the deadline;
	// that rearm supersedes this firing.
	if t.clock.Now().Before(t.flushDeadline) {
		return
	}
	t.deliverLocked(string(t.line))
	t.line = nil
}

func (t *Transport) deliverLocked(line string) {
	if t.deliver != nil {
		t.deliver(line)
	}
}

// State reports the output case and the number of characters sitting
// in the partial line buffer.
func (t *Transport) State() (baudot.Shift, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outShift, len(t.line)
}

// Keystrokes starts the dedicated input goroutine and returns its
// channel. The goroutine blocks in device reads, tracks the keyboard
// case from received shift codes, and pushes decoded keystrokes. The
// channel closes when the context ends or the device read fails.
func (t *Transport) Keystrokes(ctx context.Context) <-chan Keystroke {
	keys := make(chan Keystroke, 16)
	go t.readLoop(ctx, keys)
	return keys
}

func (t *Transport) readLoop(ctx context.Context, keys chan<- Keystroke) {
	defer close(keys)

	shift := baudot.ShiftUnknown
	for {
		batch, err := t.device.ReadCodes(ctx)
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Error("keyboard read failed", "error", err)
			}
			return
		}

		for i, code := range batch {
			var key Keystroke
			switch code {
			case baudot.CodeBlank:
				key = Keystroke{Kind: KeyBreak}
			case baudot.CodeFigures:
				shift = baudot.ShiftFigures
				continue
			case baudot.CodeLetters:
				// All bits set is both the letters shift and the
				// rubout: trailing a batch it is the destructive
				// keystroke, ahead of other codes it is the case
				// insertion for what follows.
				shift = baudot.ShiftLetters
				if i != len(batch)-1 {
					continue
				}
				key = Keystroke{Kind: KeyRubout}
			case baudot.CodeCR:
				key = Keystroke{Kind: KeyLine}
			case baudot.CodeLF:
				continue
			default:
				ch, ok := t.charset.Decode(code, shift)
				if !ok {
					continue
				}
				key = Keystroke{Kind: KeyRune, Rune: ch}
			}

			select {
			case keys <- key:
			case <-ctx.Done():
				return
			}
		}
	}
}
