// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package sms

import (
	"regexp"
	"strings"
	"time"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/places"
)

// relayTimeLayout is the relay's rcvtime format, always UTC.
const relayTimeLayout = "2006-01-02 15:04:05"

// htmlRewrites clean entity escapes the relay leaves in message
// bodies. Named and numeric entities without a printable equivalent
// become question marks; order matters, specific before generic.
var htmlRewrites = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`&mdash;`), "-"},
	{regexp.MustCompile(`&amp;`), "&"},
	{regexp.MustCompile(`&#\w+;`), "?"},
	{regexp.MustCompile(`&\w+;`), "?"},
}

// formatMessage renders a relay message as a printable item.
func (f *Feed) formatMessage(msg *relayMessage) feed.Item {
	from := formatPhoneNumber(msg.From)
	if origin := originLocation(msg.City, msg.State, msg.Country); origin != "" {
		from += " IN " + origin
	}

	timeText, dateText := f.displayReceived(msg.Received)

	body := msg.Body
	if body == "" {
		body = msg.SMSBody
	}
	if body == "" {
		body = "(NO TEXT)"
	}
	body = cleanHTML(body)

	// Delivery fields the relay parsed out of "TO person @ place"
	// bodies go above the text, where a delivery runner reads first.
	var lines []string
	if msg.DeliverTo != "" {
		lines = append(lines, "TO "+msg.DeliverTo)
	}
	if msg.DeliverAt != "" {
		lines = append(lines, "AT "+msg.DeliverAt)
	}
	lines = append(lines, body)

	return feed.Item{
		Feed:   f.name,
		From:   from,
		Time:   timeText,
		Date:   dateText,
		Body:   strings.Join(lines, "\n"),
		Serial: msg.Serial,
	}
}

// errorText extracts the printable text of a relay error record.
func errorText(msg *relayMessage) string {
	if msg.SMSBody == "" {
		return "relay reported an error"
	}
	return msg.SMSBody
}

// displayReceived converts the relay's UTC timestamp to local display
// fields. An unparseable value prints raw in the time slot rather than
// losing the message.
func (f *Feed) displayReceived(received string) (timeText, dateText string) {
	parsed, err := time.ParseInLocation(relayTimeLayout, received, time.UTC)
	if err != nil {
		f.logger.Warn("unparseable rcvtime", "value", received)
		return received, ""
	}
	local := parsed.In(f.local)
	return feed.DisplayTime(local), feed.DisplayDate(local)
}

// formatPhoneNumber renders a sender number for the header line:
// "(415) 555-0100" for NANP numbers, "INTL 44..." for other E.164,
// "(UNKNOWN)" when the relay had none. Anything unrecognized passes
// through unchanged.
func formatPhoneNumber(number string) string {
	if number == "" {
		return "(UNKNOWN)"
	}
	if len(number) == 12 && strings.HasPrefix(number, "+1") {
		return "(" + number[2:5] + ") " + number[5:8] + "-" + number[8:]
	}
	if strings.HasPrefix(number, "+") {
		return "INTL " + number[1:]
	}
	return number
}

// originLocation joins the carrier lookup fields into "CITY, STATE,
// COUNTRY", expanding state and country abbreviations. Empty fields
// drop out.
func originLocation(city, state, country string) string {
	var parts []string
	for _, part := range []string{city, places.StateName(state), places.CountryName(country)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// cleanHTML applies every rewrite rule in order.
func cleanHTML(s string) string {
	for _, rule := range htmlRewrites {
		s = rule.pattern.ReplaceAllString(s, rule.replace)
	}
	return s
}
