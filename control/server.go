// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/teleprint-works/teleprint/lib/codec"
)

const (
	// readTimeout is how long the server waits for a connected client
	// to send its request. A well-behaved client sends immediately.
	readTimeout = 30 * time.Second

	// writeTimeout bounds the response write.
	writeTimeout = 10 * time.Second

	// maxRequestSize caps one CBOR request. Print text is bounded by
	// patience and paper; 64 KiB is generous.
	maxRequestSize = 64 * 1024
)

// Server serves the control protocol on a Unix socket. Each
// connection is one request-response cycle.
type Server struct {
	socketPath string
	daemon     Daemon
	logger     *slog.Logger

	// active tracks in-flight handlers so Serve can wait them out on
	// shutdown.
	active sync.WaitGroup
}

// NewServer returns a server that will listen on socketPath and
// dispatch to daemon.
func NewServer(socketPath string, daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{socketPath: socketPath, daemon: daemon, logger: logger}
}

// Serve accepts connections until ctx is cancelled, then waits for
// active handlers. Any stale socket file at the path is removed before
// listening, and the socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("control: removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("control: listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context ends.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("control socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("control accept failed", "error", err)
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// handleConnection processes one request-response cycle.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// One CBOR value is the whole request; CBOR is self-delimiting so
	// no framing is needed. The LimitReader keeps a runaway client
	// from exhausting memory.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return // connected but sent nothing
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `json:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	result, err := s.dispatch(ctx, header.Action, raw)
	if err != nil {
		s.logger.Debug("control action failed", "action", header.Action, "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

// dispatch routes one decoded request to the daemon. The returned
// value, if non-nil, becomes the response data.
func (s *Server) dispatch(ctx context.Context, action string, raw codec.RawMessage) (any, error) {
	switch action {
	case ActionStatus:
		return s.daemon.Status(), nil

	case ActionPrint:
		var request PrintRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("invalid print request: %v", err)
		}
		if strings.TrimSpace(request.Text) == "" {
			return nil, fmt.Errorf("print requires text")
		}
		return nil, s.daemon.Print(request.Text)

	case ActionSend:
		var request SendRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("invalid send request: %v", err)
		}
		if request.To == "" || request.Body == "" {
			return nil, fmt.Errorf("send requires to and body")
		}
		return nil, s.daemon.Send(ctx, request.To, request.Body)

	case "":
		return nil, fmt.Errorf("missing required field: action")

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// writeError sends {ok: false, error: message}. Write failures are
// logged at debug level: the connection is closing regardless.
func (s *Server) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{OK: false, Error: message}); err != nil {
		s.logger.Debug("control error response not written", "error", err)
	}
}

// writeSuccess sends {ok: true} with the marshalled result in data
// when there is one.
func (s *Server) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshalling response: %v", err))
			return
		}
		response.Data = data
	}
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("control response not written", "error", err)
	}
}
