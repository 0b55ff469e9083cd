// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/teleprint-works/teleprint/lib/codec"
)

const (
	// dialTimeout covers only the connect phase.
	dialTimeout = 5 * time.Second

	// responseReadTimeout is how long the client waits for the reply
	// after writing the request. Matched to the server's read plus
	// write timeouts to allow for handler time.
	responseReadTimeout = 45 * time.Second

	// maxResponseSize matches the server's request cap.
	maxResponseSize = 64 * 1024
)

// CallError is returned by Call when the daemon answered with
// ok=false. Connection and encoding failures are plain errors.
type CallError struct {
	Action  string
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("control: %s failed: %s", e.Action, e.Message)
}

// Client sends control requests to a daemon socket. Each Call opens a
// fresh connection, matching the server's one-request-per-connection
// model.
type Client struct {
	socketPath string
}

// NewClient returns a client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends one request and decodes the reply. The fields map holds
// action-specific request fields; the client adds "action" itself.
// On success, response data (when present) is CBOR-decoded into
// result if result is non-nil.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("control: calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &CallError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("control: decoding %q response: %w", action, err)
		}
	}
	return nil
}

// Raw sends one request and returns the undecoded response data.
// teleprint-call uses it to render replies without knowing their
// shape.
func (c *Client) Raw(ctx context.Context, action string, fields map[string]any) (codec.RawMessage, error) {
	var data codec.RawMessage
	if err := c.Call(ctx, action, fields, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	// Half-close so the server's read side sees a clean EOF.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
