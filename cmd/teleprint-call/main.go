// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/teleprint-works/teleprint/control"
	"github.com/teleprint-works/teleprint/lib/codec"
	"github.com/teleprint-works/teleprint/lib/version"
)

// Default socket path (can be overridden via --socket or
// TELEPRINT_SOCKET).
const defaultSocketPath = "/run/teleprint/control.sock"

// Exit codes: 1 means the daemon refused the request, 2 means the
// request never got a proper answer (bad usage, socket trouble).
const (
	exitOK        = 0
	exitRefused   = 1
	exitTransport = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		socketPath  string
		timeout     time.Duration
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("teleprint-call", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", "", "control socket path (default: TELEPRINT_SOCKET or "+defaultSocketPath+")")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "per-call deadline")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitTransport
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return exitOK
	}
	if showVersion {
		fmt.Printf("teleprint-call %s\n", version.Info())
		return exitOK
	}

	args := flagSet.Args()
	if len(args) < 1 {
		printHelp(flagSet)
		return exitTransport
	}
	action := args[0]
	fields, err := parseFields(args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitTransport
	}

	if socketPath == "" {
		socketPath = os.Getenv("TELEPRINT_SOCKET")
	}
	if socketPath == "" {
		socketPath = defaultSocketPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	data, err := control.NewClient(socketPath).Raw(ctx, action, fields)
	if err != nil {
		var callErr *control.CallError
		if errors.As(err, &callErr) {
			fmt.Fprintf(os.Stderr, "error: %s\n", callErr.Message)
			return exitRefused
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitTransport
	}
	return render(data)
}

// parseFields turns KEY=VALUE arguments into the request payload.
// Values travel as strings; the daemon decodes them into the typed
// request for the action.
func parseFields(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not KEY=VALUE", arg)
		}
		fields[key] = value
	}
	return fields, nil
}

// render writes the reply to stdout: indented JSON when the action
// returned data, a bare OK when it did not, so scripts always see a
// definite answer.
func render(data codec.RawMessage) int {
	if len(data) == 0 {
		fmt.Println("OK")
		return exitOK
	}
	var value any
	if err := codec.Unmarshal(data, &value); err != nil {
		fmt.Fprintf(os.Stderr, "error: undecodable reply: %v\n", err)
		return exitTransport
	}
	rendered, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: rendering reply: %v\n", err)
		return exitTransport
	}
	fmt.Println(string(rendered))
	return exitOK
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Teleprint control client — send one request to a running daemon.

Usage:
  teleprint-call [flags] ACTION [KEY=VALUE...]

Actions:
  status                    daemon and per-feed state
  print text=TEXT           queue text for the paper
  send to=NUMBER body=TEXT  originate an outbound message

Examples:
  teleprint-call status
  teleprint-call print text="RY RY RY TEST"
  teleprint-call send to=+14155550100 body="ON MY WAY"

Environment:
  TELEPRINT_SOCKET  control socket path (default %s)

Flags:
`, defaultSocketPath)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
