// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teleprint-works/teleprint/teletype"
)

// commandSummary prints for "?" and anything unrecognized.
const commandSummary = "COMMANDS:\n" +
	"S NUMBER MESSAGE  SEND AN SMS\n" +
	"W                 REPRINT THE WEATHER\n" +
	"?                 THIS LIST"

// Keyboard interprets commands typed at the machine. The printer is
// half-duplex paper: keystrokes do not echo, and responses go through
// the shared queue like any other item.
type Keyboard struct {
	daemon Daemon
	logger *slog.Logger
	line   []rune
}

// NewKeyboard returns an interpreter driving daemon.
func NewKeyboard(daemon Daemon, logger *slog.Logger) *Keyboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keyboard{daemon: daemon, logger: logger}
}

// Run consumes keystrokes until the channel closes or the context
// ends. Rubout deletes the last buffered character, break abandons
// the line, carriage return executes it.
func (k *Keyboard) Run(ctx context.Context, keys <-chan teletype.Keystroke) {
	for {
		select {
		case key, ok := <-keys:
			if !ok {
				return
			}
			k.handle(ctx, key)
		case <-ctx.Done():
			return
		}
	}
}

func (k *Keyboard) handle(ctx context.Context, key teletype.Keystroke) {
	switch key.Kind {
	case teletype.KeyRune:
		k.line = append(k.line, key.Rune)
	case teletype.KeyRubout:
		if len(k.line) > 0 {
			k.line = k.line[:len(k.line)-1]
		}
	case teletype.KeyBreak:
		k.line = k.line[:0]
	case teletype.KeyLine:
		command := strings.TrimSpace(string(k.line))
		k.line = k.line[:0]
		if command != "" {
			k.execute(ctx, command)
		}
	}
}

// execute runs one completed command line.
func (k *Keyboard) execute(ctx context.Context, command string) {
	k.logger.Debug("keyboard command", "line", command)

	verb, rest, _ := strings.Cut(command, " ")
	switch strings.ToUpper(verb) {
	case "S":
		k.sendCommand(ctx, strings.TrimSpace(rest))
	case "W":
		if err := k.daemon.Reprint(); err != nil {
			k.respond(fmt.Sprintf("NO WEATHER REPORT: %v", err))
		}
	default:
		k.respond(commandSummary)
	}
}

func (k *Keyboard) sendCommand(ctx context.Context, rest string) {
	number, text, ok := strings.Cut(rest, " ")
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		k.respond("USE: S NUMBER MESSAGE")
		return
	}
	to, ok := normalizeNumber(number)
	if !ok {
		k.respond("NUMBER MUST BE 10 OR MORE DIGITS")
		return
	}
	if err := k.daemon.Send(ctx, to, text); err != nil {
		k.respond(fmt.Sprintf("SEND FAILED: %v", err))
		return
	}
	k.respond("SENT TO " + to)
}

// respond prints a reply line through the shared queue. A failure
// here means the daemon is on its way down; log it and move on.
func (k *Keyboard) respond(text string) {
	if err := k.daemon.Print(text); err != nil {
		k.logger.Warn("keyboard response not queued", "error", err)
	}
}

// normalizeNumber converts a typed number to E.164. The keyboard has
// no plus sign, so numbers are typed bare: ten digits get the +1
// country code, longer numbers their own leading +.
func normalizeNumber(number string) (string, bool) {
	if number == "" {
		return "", false
	}
	for _, ch := range number {
		if ch < '0' || ch > '9' {
			return "", false
		}
	}
	switch {
	case len(number) == 10:
		return "+1" + number, true
	case len(number) >= 11:
		return "+" + number, true
	default:
		return "", false
	}
}
