// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package console emulates a teleprinter on the controlling terminal.
// Received codes render as the paper image on stdout; raw keystrokes
// from stdin become the code batches a mechanical keyboard would send,
// shift insertion included. The abort key (Ctrl-C) terminates the
// process on the spot: the emulated machine is uncooperative hardware,
// not a resource that shuts down gracefully.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/teleprint-works/teleprint/baudot"
)

// Config assembles a console Device. All fields are optional.
type Config struct {
	// Charset selects the code assignment. Defaults to baudot.USTTY.
	Charset *baudot.Charset

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Device is an interactive teleprinter emulation bound to the
// process's controlling terminal. It implements teletype.Device.
type Device struct {
	logger *slog.Logger
	stdout *os.File
	output *termenv.Output
	saved  *term.State

	writeMu sync.Mutex
	paper   *paper

	keys  *keymap
	reads chan readResult
}

type readResult struct {
	data []byte
	err  error
}

// Open puts the terminal into raw mode and starts the keyboard reader.
// The caller must Close to restore the terminal — except on abort,
// which exits without cleanup.
func Open(config Config) (*Device, error) {
	charset := config.Charset
	if charset == nil {
		charset = baudot.USTTY
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return nil, fmt.Errorf("console: stdin is not a terminal")
	}
	saved, err := term.MakeRaw(stdinFd)
	if err != nil {
		return nil, fmt.Errorf("console: setting raw mode: %w", err)
	}

	d := &Device{
		logger: logger,
		stdout: os.Stdout,
		output: termenv.NewOutput(os.Stdout),
		saved:  saved,
		paper:  newPaper(charset),
		keys: &keymap{
			charset: charset,
			shift:   baudot.ShiftUnknown,
			logger:  logger,
			abort:   func() { os.Exit(0) },
		},
		reads: make(chan readResult),
	}
	d.output.SetWindowTitle("teleprint")

	go d.pump()
	return d, nil
}

// pump owns the blocking stdin reads. A blocked terminal read has no
// portable interruption, so once nothing consumes d.reads the pump
// parks until process exit.
func (d *Device) pump() {
	for {
		buf := make([]byte, 64)
		n, err := os.Stdin.Read(buf)
		if err != nil {
			d.reads <- readResult{err: err}
			return
		}
		d.reads <- readResult{data: buf[:n]}
	}
}

// WriteCodes renders the batch onto the paper image.
func (d *Device) WriteCodes(ctx context.Context, codes []baudot.Code) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	image := d.paper.render(codes)
	if image == "" {
		return nil
	}
	if _, err := d.stdout.WriteString(image); err != nil {
		return fmt.Errorf("console: writing paper image: %w", err)
	}
	return nil
}

// ReadCodes blocks until the operator produces at least one code, then
// returns that keystroke-equivalent batch.
func (d *Device) ReadCodes(ctx context.Context) ([]baudot.Code, error) {
	for {
		select {
		case result := <-d.reads:
			if result.err != nil {
				return nil, fmt.Errorf("console: reading keyboard: %w", result.err)
			}
			codes, echo := d.keys.translate(result.data)
			if echo != "" {
				d.writeEcho(echo)
			}
			if len(codes) == 0 {
				continue
			}
			return codes, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// writeEcho reflects accepted keystrokes back to the operator. The
// keyboard and the print head share the platen, so typed characters
// appear on the same paper stream.
func (d *Device) writeEcho(echo string) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := d.stdout.WriteString(echo); err != nil {
		d.logger.Warn("console echo failed", "error", err)
	}
}

// Close restores the terminal to its saved state.
func (d *Device) Close() error {
	if d.saved == nil {
		return nil
	}
	saved := d.saved
	d.saved = nil
	d.output.Reset()
	if err := term.Restore(int(os.Stdin.Fd()), saved); err != nil {
		return fmt.Errorf("console: restoring terminal: %w", err)
	}
	return nil
}
