// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/teleprint-works/teleprint/lib/netutil"
)

// gatewaySendURL builds the message-create endpoint under the gateway
// base.
func gatewaySendURL(base, accountSID string) string {
	return strings.TrimSuffix(base, "/") + "/Accounts/" + accountSID + "/SMS/Messages.json"
}

// Send posts an outbound SMS to the gateway. Success is the gateway
// accepting the message for delivery ("queued" or "sent"); anything
// else comes back as an error for the operator surface to print.
func (f *Feed) Send(ctx context.Context, to, body string) error {
	form := url.Values{
		"From": {f.phone},
		"To":   {to},
		"Body": {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.sendURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(f.accountSID, f.authToken.String())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms: gateway rejected send: %s: %s",
			resp.Status, snippet(netutil.ErrorBody(resp.Body)))
	}

	var reply struct {
		Status string `json:"status"`
	}
	if err := netutil.DecodeResponse(resp.Body, &reply); err != nil {
		return fmt.Errorf("sms: reading gateway reply: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(reply.Status)) {
	case "queued", "sent":
		f.logger.Info("message sent", "to", to)
		return nil
	default:
		return fmt.Errorf("sms: gateway reports status %q", reply.Status)
	}
}

// snippet collapses an error body to one short diagnostic line.
func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > 180 {
		return string(runes[:180]) + "..."
	}
	return s
}
