// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"fmt"
	"strings"
	"time"
)

// Format renders an item as the text block handed to the transport.
//
// Diagnostics print as one short line. Regular items get a header line
// from whichever of From/Time/Date the adapter filled in, then the
// body; adapters with self-describing bodies (the weather report)
// leave the header fields empty and the body stands alone.
func Format(item Item) string {
	if item.Error {
		if item.Time != "" {
			return fmt.Sprintf("%s: %s\n", item.Time, item.ErrorText)
		}
		return item.ErrorText + "\n"
	}

	var header []string
	if item.From != "" {
		header = append(header, "FROM "+item.From)
	}
	if item.Time != "" {
		header = append(header, item.Time)
	}
	if item.Date != "" {
		header = append(header, item.Date)
	}

	body := strings.TrimRight(item.Body, "\n")
	if len(header) == 0 {
		return body + "\n"
	}
	return strings.Join(header, "  ") + "\n" + body + "\n"
}

// DisplayTime renders a timestamp's clock part for item headers:
// "07:30 PM".
func DisplayTime(t time.Time) string {
	return t.Format("03:04 PM")
}

// DisplayDate renders a timestamp's date part for item headers:
// "March 12".
func DisplayDate(t time.Time) string {
	return t.Format("January 2")
}
