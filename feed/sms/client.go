// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/teleprint-works/teleprint/lib/netutil"
)

// relayClient speaks the relay's command protocol. Every request
// carries the account id and this machine's number; getnext reads are
// GETs, printed receipts are POSTs.
type relayClient struct {
	serverURL  string
	accountSID string
	phone      string
	httpClient *http.Client
}

// relayMessage is one stored message as the relay serves it. The relay
// pre-parses "TO person @ place: text" bodies into msgbody and the
// delivery fields; smsbody is the untouched original.
type relayMessage struct {
	Serial    int64  `json:"serial"`
	From      string `json:"smsfrom"`
	Received  string `json:"rcvtime"`
	SMSBody   string `json:"smsbody"`
	Body      string `json:"msgbody"`
	DeliverTo string `json:"deliverto"`
	DeliverAt string `json:"deliverat"`
	ErrorFlag string `json:"errormsg"`
	City      string `json:"smsfromcity"`
	State     string `json:"smsfromstate"`
	Country   string `json:"smsfromcountry"`
}

// getNext requests the first unread message with serial greater than
// lastSerial. The raw reply body is returned for decodeReply, keeping
// transport failures distinct from malformed replies.
func (c *relayClient) getNext(ctx context.Context, lastSerial int64) ([]byte, error) {
	return c.command(ctx, http.MethodGet, "getnext", url.Values{
		"lastserial": {strconv.FormatInt(lastSerial, 10)},
	})
}

// markPrinted records a printed-receipt for serial on the relay.
func (c *relayClient) markPrinted(ctx context.Context, serial int64) error {
	_, err := c.command(ctx, http.MethodPost, "printed", url.Values{
		"serial": {strconv.FormatInt(serial, 10)},
	})
	return err
}

func (c *relayClient) command(ctx context.Context, method, cmd string, args url.Values) ([]byte, error) {
	params := url.Values{
		"accountsid":  {c.accountSID},
		"phonenumber": {c.phone},
		"cmd":         {cmd},
	}
	for key, values := range args {
		params[key] = values
	}

	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.serverURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.serverURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", cmd, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", cmd, resp.Status)
	}
	return netutil.ReadResponse(resp.Body)
}

// decodeReply unpacks a getnext reply. A nil message means the relay
// has nothing new.
func decodeReply(data []byte) (*relayMessage, error) {
	var reply struct {
		Message *relayMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("reply is not relay JSON: %v", err)
	}
	return reply.Message, nil
}
