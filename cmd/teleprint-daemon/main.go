// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Teleprint-daemon is the long-running process that owns the
// teleprinter. It polls the configured sources, queues what they
// produce, and prints it; the machine's keyboard and a control socket
// let the operator talk back.
//
// On startup:
//  1. Loads the YAML config named by --config or TELEPRINT_CONFIG.
//  2. Opens the device: the console emulation or a serial port.
//  3. Loads the feed catalog and constructs the source adapters.
//  4. Starts the scheduler, the keyboard interpreter, the control
//     socket, and the catalog file watcher.
//  5. Runs until SIGINT/SIGTERM or a device write failure.
//
// Catalog edits apply without a restart: the daemon watches the feeds
// file and reconciles the running adapters against it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/teleprint-works/teleprint/baudot"
	"github.com/teleprint-works/teleprint/lib/config"
	"github.com/teleprint-works/teleprint/lib/version"
	"github.com/teleprint-works/teleprint/teletype"
	"github.com/teleprint-works/teleprint/teletype/console"
	"github.com/teleprint-works/teleprint/teletype/serial"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "config file (overrides TELEPRINT_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("teleprint-daemon %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	charset, err := baudot.ByName(cfg.Device.Charset)
	if err != nil {
		return err
	}

	device, err := openDevice(cfg, charset, logger)
	if err != nil {
		return err
	}
	defer device.Close()

	daemon, err := newDaemon(cfg, charset, device, logger)
	if err != nil {
		return err
	}
	defer daemon.close()

	return daemon.run(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// buildLogger routes records to stderr: human-readable when stderr is
// a terminal, JSON lines when it is a pipe or a service manager.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options)), nil
}

// openDevice opens the configured machine: the terminal emulation for
// "console", a serial port for anything else.
func openDevice(cfg *config.Config, charset *baudot.Charset, logger *slog.Logger) (teletype.Device, error) {
	if cfg.Device.Port == "console" {
		return console.Open(console.Config{Charset: charset, Logger: logger})
	}
	return serial.Open(serial.Config{
		Path:   cfg.Device.Port,
		Baud:   cfg.Device.Baud,
		Logger: logger,
	})
}
