// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/teleprint-works/teleprint/lib/testutil"
	"github.com/teleprint-works/teleprint/teletype"
)

var (
	keyLine   = teletype.Keystroke{Kind: teletype.KeyLine}
	keyRubout = teletype.Keystroke{Kind: teletype.KeyRubout}
	keyBreak  = teletype.Keystroke{Kind: teletype.KeyBreak}
)

// runes converts a string into KeyRune keystrokes.
func runes(line string) []teletype.Keystroke {
	var keys []teletype.Keystroke
	for _, ch := range line {
		keys = append(keys, teletype.Keystroke{Kind: teletype.KeyRune, Rune: ch})
	}
	return keys
}

// typed is a full line: its characters followed by carriage return.
func typed(line string) []teletype.Keystroke {
	return append(runes(line), keyLine)
}

// runKeyboard feeds keys through a fresh Keyboard and returns once
// every keystroke has been handled.
func runKeyboard(t *testing.T, daemon Daemon, keys []teletype.Keystroke) {
	t.Helper()
	ch := make(chan teletype.Keystroke)
	done := make(chan struct{})
	keyboard := NewKeyboard(daemon, testLogger())
	go func() {
		defer close(done)
		keyboard.Run(t.Context(), ch)
	}()
	for _, key := range keys {
		testutil.RequireSend(t, ch, key, 5*time.Second, "feeding keystroke")
	}
	close(ch)
	testutil.RequireClosed(t, done, 5*time.Second, "keyboard exit")
}

func TestSendCommand(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}
	runKeyboard(t, daemon, typed("S 4155550100 ON MY WAY"))

	want := []sendCall{{to: "+14155550100", body: "ON MY WAY"}}
	if got := daemon.sentCalls(); !slices.Equal(got, want) {
		t.Errorf("sent = %v, want %v", got, want)
	}
	if got := daemon.printedLines(); !slices.Equal(got, []string{"SENT TO +14155550100"}) {
		t.Errorf("printed = %v", got)
	}
}

func TestSendCommandNumberForms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		number string
		want   string
	}{
		{"ten digits get country code", "4155550100", "+14155550100"},
		{"eleven digits pass with plus", "14155550100", "+14155550100"},
		{"international passes with plus", "447700900123", "+447700900123"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			daemon := &fakeDaemon{}
			runKeyboard(t, daemon, typed("S "+test.number+" HELLO"))

			got := daemon.sentCalls()
			if len(got) != 1 || got[0].to != test.want {
				t.Errorf("sent = %v, want one call to %s", got, test.want)
			}
		})
	}
}

func TestSendCommandRejectsBadNumbers(t *testing.T) {
	t.Parallel()
	for _, number := range []string{"555-0100", "5550100", "CHARLIE"} {
		t.Run(number, func(t *testing.T) {
			t.Parallel()
			daemon := &fakeDaemon{}
			runKeyboard(t, daemon, typed("S "+number+" HELLO"))

			if len(daemon.sentCalls()) != 0 {
				t.Error("bad number reached the daemon")
			}
			got := daemon.printedLines()
			if !slices.Equal(got, []string{"NUMBER MUST BE 10 OR MORE DIGITS"}) {
				t.Errorf("printed = %v", got)
			}
		})
	}
}

func TestSendCommandUsage(t *testing.T) {
	t.Parallel()
	for _, line := range []string{"S", "S 4155550100", "S 4155550100   "} {
		t.Run(line, func(t *testing.T) {
			t.Parallel()
			daemon := &fakeDaemon{}
			runKeyboard(t, daemon, typed(line))

			got := daemon.printedLines()
			if !slices.Equal(got, []string{"USE: S NUMBER MESSAGE"}) {
				t.Errorf("printed = %v", got)
			}
		})
	}
}

func TestSendCommandFailure(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{sendErr: errors.New("gateway timeout")}
	runKeyboard(t, daemon, typed("S 4155550100 HELLO"))

	got := daemon.printedLines()
	if !slices.Equal(got, []string{"SEND FAILED: gateway timeout"}) {
		t.Errorf("printed = %v", got)
	}
}

func TestWeatherCommand(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}
	runKeyboard(t, daemon, typed("W"))

	if got := daemon.reprintCount(); got != 1 {
		t.Errorf("reprints = %d, want 1", got)
	}
	// Success prints nothing extra: the report itself arrives through
	// the queue.
	if got := daemon.printedLines(); len(got) != 0 {
		t.Errorf("printed = %v, want none", got)
	}
}

func TestWeatherCommandFailure(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{reprintErr: errors.New("no report fetched yet")}
	runKeyboard(t, daemon, typed("W"))

	got := daemon.printedLines()
	if !slices.Equal(got, []string{"NO WEATHER REPORT: no report fetched yet"}) {
		t.Errorf("printed = %v", got)
	}
}

func TestSummaryForHelpAndUnknown(t *testing.T) {
	t.Parallel()
	for _, line := range []string{"?", "XYZZY", "HELP ME"} {
		t.Run(line, func(t *testing.T) {
			t.Parallel()
			daemon := &fakeDaemon{}
			runKeyboard(t, daemon, typed(line))

			got := daemon.printedLines()
			if len(got) != 1 || !strings.Contains(got[0], "S NUMBER MESSAGE") {
				t.Errorf("printed = %v, want command summary", got)
			}
		})
	}
}

func TestLowercaseVerb(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}
	runKeyboard(t, daemon, typed("s 4155550100 on my way"))

	want := []sendCall{{to: "+14155550100", body: "on my way"}}
	if got := daemon.sentCalls(); !slices.Equal(got, want) {
		t.Errorf("sent = %v, want %v", got, want)
	}
}

func TestRuboutEditsLine(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}

	// Type "SQ", erase the Q, then finish the command.
	keys := runes("SQ")
	keys = append(keys, keyRubout)
	keys = append(keys, runes(" 4155550100 FIXED")...)
	keys = append(keys, keyLine)
	runKeyboard(t, daemon, keys)

	want := []sendCall{{to: "+14155550100", body: "FIXED"}}
	if got := daemon.sentCalls(); !slices.Equal(got, want) {
		t.Errorf("sent = %v, want %v", got, want)
	}
}

func TestRuboutOnEmptyLine(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}

	keys := []teletype.Keystroke{keyRubout, keyRubout}
	keys = append(keys, typed("W")...)
	runKeyboard(t, daemon, keys)

	if got := daemon.reprintCount(); got != 1 {
		t.Errorf("reprints = %d, want 1", got)
	}
}

func TestBreakAbandonsLine(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}

	keys := runes("S 41555")
	keys = append(keys, keyBreak)
	keys = append(keys, typed("W")...)
	runKeyboard(t, daemon, keys)

	if len(daemon.sentCalls()) != 0 {
		t.Error("abandoned line reached the daemon")
	}
	if len(daemon.printedLines()) != 0 {
		t.Errorf("printed = %v, want none", daemon.printedLines())
	}
	if got := daemon.reprintCount(); got != 1 {
		t.Errorf("reprints = %d, want 1", got)
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	t.Parallel()
	daemon := &fakeDaemon{}

	keys := typed("")
	keys = append(keys, typed("   ")...)
	runKeyboard(t, daemon, keys)

	if len(daemon.printedLines()) != 0 || len(daemon.sentCalls()) != 0 {
		t.Error("blank line produced activity")
	}
	if daemon.reprintCount() != 0 {
		t.Error("blank line triggered a reprint")
	}
}
