// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package sms

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/teleprint-works/teleprint/lib/clock"
)

var (
	testZone  = time.FixedZone("PST", -8*3600)
	testEpoch = time.Date(2026, time.March, 13, 3, 30, 0, 0, time.UTC)
)

// formatterFeed builds a Feed with just the fields the formatting
// paths touch.
func formatterFeed() *Feed {
	return &Feed{
		name:   "sms",
		local:  testZone,
		clk:    clock.Fake(testEpoch),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	t.Parallel()
	tests := []struct {
		number string
		want   string
	}{
		{"", "(UNKNOWN)"},
		{"+14155550100", "(415) 555-0100"},
		{"+442071838750", "INTL 442071838750"},
		{"+1415555010", "INTL 1415555010"}, // too short for NANP
		{"5550100", "5550100"},
		{"(SENDER UNKNOWN)", "(SENDER UNKNOWN)"},
	}
	for _, test := range tests {
		if got := formatPhoneNumber(test.number); got != test.want {
			t.Errorf("formatPhoneNumber(%q) = %q, want %q", test.number, got, test.want)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"A &amp; B", "A & B"},
		{"wait &mdash; stop", "wait - stop"},
		{"caf&eacute;", "caf?"},
		{"it&#8217;s", "it?s"},
		{"A &amp; B &mdash; it&#8217;s &nbsp;done", "A & B - it?s ?done"},
		{"no entities", "no entities"},
	}
	for _, test := range tests {
		if got := cleanHTML(test.in); got != test.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestOriginLocation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		city, state, country string
		want                 string
	}{
		{"San Francisco", "CA", "US", "San Francisco, California, United States"},
		{"", "CA", "", "California"},
		{"London", "", "GB", "London, United Kingdom"},
		{"", "", "", ""},
		{"Springfield", "XX", "", "Springfield, XX"}, // unknown code passes through
	}
	for _, test := range tests {
		got := originLocation(test.city, test.state, test.country)
		if got != test.want {
			t.Errorf("originLocation(%q, %q, %q) = %q, want %q",
				test.city, test.state, test.country, got, test.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()
	f := formatterFeed()

	item := f.formatMessage(&relayMessage{
		Serial:    102,
		From:      "+14155550100",
		Received:  "2026-03-13 03:30:00",
		SMSBody:   "TO JOHN @ FRONT DESK: RUNNING LATE",
		Body:      "RUNNING LATE",
		DeliverTo: "JOHN",
		DeliverAt: "FRONT DESK",
		ErrorFlag: "0",
		City:      "San Francisco",
		State:     "CA",
		Country:   "US",
	})

	if got, want := item.From, "(415) 555-0100 IN San Francisco, California, United States"; got != want {
		t.Errorf("item.From = %q, want %q", got, want)
	}
	if got, want := item.Time, "07:30 PM"; got != want {
		t.Errorf("item.Time = %q, want %q", got, want)
	}
	if got, want := item.Date, "March 12"; got != want {
		t.Errorf("item.Date = %q, want %q", got, want)
	}
	if got, want := item.Body, "TO JOHN\nAT FRONT DESK\nRUNNING LATE"; got != want {
		t.Errorf("item.Body = %q, want %q", got, want)
	}
	if item.Serial != 102 {
		t.Errorf("item.Serial = %d, want 102", item.Serial)
	}
	if item.Feed != "sms" {
		t.Errorf("item.Feed = %q, want %q", item.Feed, "sms")
	}
	if item.Error {
		t.Error("normal message marked as error")
	}
}

func TestFormatMessageFallbacks(t *testing.T) {
	t.Parallel()
	f := formatterFeed()

	t.Run("raw body when relay did not parse", func(t *testing.T) {
		item := f.formatMessage(&relayMessage{
			Serial: 7, Received: "2026-03-13 03:30:00",
			SMSBody: "plain &amp; simple",
		})
		if got, want := item.Body, "plain & simple"; got != want {
			t.Errorf("item.Body = %q, want %q", got, want)
		}
		if got, want := item.From, "(UNKNOWN)"; got != want {
			t.Errorf("item.From = %q, want %q", got, want)
		}
	})

	t.Run("empty body placeholder", func(t *testing.T) {
		item := f.formatMessage(&relayMessage{Serial: 8, Received: "2026-03-13 03:30:00"})
		if got, want := item.Body, "(NO TEXT)"; got != want {
			t.Errorf("item.Body = %q, want %q", got, want)
		}
	})

	t.Run("unparseable timestamp prints raw", func(t *testing.T) {
		item := f.formatMessage(&relayMessage{Serial: 9, Received: "yesterday-ish", SMSBody: "HI"})
		if got, want := item.Time, "yesterday-ish"; got != want {
			t.Errorf("item.Time = %q, want %q", got, want)
		}
		if item.Date != "" {
			t.Errorf("item.Date = %q, want empty", item.Date)
		}
	})
}

func TestErrorText(t *testing.T) {
	t.Parallel()
	if got, want := errorText(&relayMessage{SMSBody: "DB DOWN"}), "DB DOWN"; got != want {
		t.Errorf("errorText() = %q, want %q", got, want)
	}
	if got, want := errorText(&relayMessage{}), "relay reported an error"; got != want {
		t.Errorf("errorText() = %q, want %q", got, want)
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()
	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 12, hour, minute, 0, 0, testZone)
	}

	day, err := parseWindow("06:00-22:00")
	if err != nil {
		t.Fatalf("parseWindow() error: %v", err)
	}
	for _, test := range []struct {
		t    time.Time
		want bool
	}{
		{at(5, 59), false},
		{at(6, 0), true},
		{at(12, 0), true},
		{at(21, 59), true},
		{at(22, 0), false},
	} {
		if got := day.contains(test.t); got != test.want {
			t.Errorf("contains(%s) = %v, want %v", test.t.Format("15:04"), got, test.want)
		}
	}

	night, err := parseWindow("22:00-06:00")
	if err != nil {
		t.Fatalf("parseWindow() error: %v", err)
	}
	if !night.contains(at(23, 30)) || !night.contains(at(3, 0)) {
		t.Error("midnight-crossing window excludes its own hours")
	}
	if night.contains(at(12, 0)) {
		t.Error("midnight-crossing window includes midday")
	}

	always, err := parseWindow("00:00-00:00")
	if err != nil {
		t.Fatalf("parseWindow() error: %v", err)
	}
	if !always.contains(at(4, 15)) {
		t.Error("degenerate window should cover the whole day")
	}

	for _, bad := range []string{"", "06:00", "6am-10pm", "25:00-26:00", "06:60-07:00", "24:30-06:00"} {
		if _, err := parseWindow(bad); err == nil {
			t.Errorf("parseWindow(%q) accepted a malformed window", bad)
		}
	}
}
