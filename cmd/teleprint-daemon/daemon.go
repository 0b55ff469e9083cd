// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teleprint-works/teleprint/baudot"
	"github.com/teleprint-works/teleprint/control"
	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/config"
	"github.com/teleprint-works/teleprint/lib/feeddef"
	"github.com/teleprint-works/teleprint/lib/journal"
	"github.com/teleprint-works/teleprint/lib/version"
	"github.com/teleprint-works/teleprint/teletype"
)

// reprinter is the capability behind the keyboard's W command: a feed
// that can hand back its most recent report for re-injection. The
// weather adapter has it; message sources do not.
type reprinter interface {
	LastReport() (feed.Item, bool)
}

// Daemon wires the transport, scheduler, journal, and operator
// surfaces together. It implements control.Daemon for both the socket
// server and the keyboard interpreter.
type Daemon struct {
	cfg       *config.Config
	charset   *baudot.Charset
	transport *teletype.Transport
	scheduler *feed.Scheduler
	journal   *journal.Journal // nil when disabled
	logger    *slog.Logger
	started   time.Time

	mu sync.Mutex
	// feeds maps live adapters by their full definition, so a reload
	// keeps the instance (and its cursor and pending acks) for every
	// definition that did not change.
	feeds   map[feeddef.Definition]feed.Feed
	weather reprinter
}

func newDaemon(cfg *config.Config, charset *baudot.Charset, device teletype.Device, logger *slog.Logger) (*Daemon, error) {
	var jnl *journal.Journal
	if cfg.JournalDir != "" {
		var err error
		jnl, err = journal.Open(journal.Config{Dir: cfg.JournalDir, Logger: logger})
		if err != nil {
			return nil, err
		}
	}

	transport, err := teletype.New(teletype.Config{
		Device:     device,
		Charset:    charset,
		FlushDelay: cfg.Device.FlushDelayDuration(),
		Deliver: func(line string) {
			logger.Debug("line printed", "text", line)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	var onDelivered func(feed.Item)
	if jnl != nil {
		onDelivered = func(item feed.Item) {
			if err := jnl.Record(item, time.Now()); err != nil {
				logger.Error("journal write failed", "error", err)
			}
		}
	}

	scheduler, err := feed.NewScheduler(feed.SchedulerConfig{
		Deliver:     transport.Print,
		OnDelivered: onDelivered,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:       cfg,
		charset:   charset,
		transport: transport,
		scheduler: scheduler,
		journal:   jnl,
		logger:    logger,
		started:   time.Now(),
		feeds:     make(map[feeddef.Definition]feed.Feed),
	}, nil
}

// run loads the catalog, starts every moving part, and blocks until
// the context ends or one of the fatal loops fails.
func (d *Daemon) run(ctx context.Context) error {
	catalog, err := feeddef.ReadFile(d.cfg.FeedsFile)
	if err != nil {
		return err
	}
	if issues := feeddef.Validate(catalog); len(issues) > 0 {
		return fmt.Errorf("feed catalog %s: %s", d.cfg.FeedsFile, strings.Join(issues, "; "))
	}
	feeds, err := d.buildFeeds(ctx, catalog)
	if err != nil {
		return err
	}
	d.logger.Info("feeds configured", "count", len(feeds))

	fatal := make(chan error, 2)
	go func() { fatal <- d.scheduler.Run(ctx, feeds) }()

	if d.cfg.ControlSocket != "" {
		server := control.NewServer(d.cfg.ControlSocket, d, d.logger)
		go func() { fatal <- server.Serve(ctx) }()
	}

	keyboard := control.NewKeyboard(d, d.logger)
	go keyboard.Run(ctx, d.transport.Keystrokes(ctx))

	go d.watchCatalog(ctx)

	select {
	case err := <-fatal:
		return err
	case <-ctx.Done():
		d.logger.Info("shutting down")
		return nil
	}
}

// close releases the adapters and the journal. Called after run
// returns; the scheduler loops are already down.
func (d *Daemon) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for def, adapter := range d.feeds {
		if closer, ok := adapter.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				d.logger.Warn("closing feed", "feed", def.Name, "error", err)
			}
		}
	}
	d.feeds = nil
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			d.logger.Warn("closing journal", "error", err)
		}
	}
}

// Status reports the daemon and per-feed state for the control
// socket.
func (d *Daemon) Status() control.StatusReply {
	s := d.scheduler.Status()
	return control.StatusReply{
		Version:       version.Short(),
		UptimeSeconds: int64(time.Since(d.started) / time.Second),
		Device:        d.cfg.Device.Port,
		Charset:       d.charset.Name(),
		QueueDepth:    s.QueueDepth,
		Printed:       s.Printed,
		Feeds:         s.Feeds,
	}
}

// Print queues operator text for the paper. It shares the queue with
// feed traffic, so it prints in arrival order like everything else.
func (d *Daemon) Print(text string) error {
	d.scheduler.Inject(feed.Item{Feed: "operator", Body: text})
	return nil
}

// Send routes an outbound message through whichever running feed can
// originate one.
func (d *Daemon) Send(ctx context.Context, to, body string) error {
	sender := d.scheduler.Sender()
	if sender == nil {
		return fmt.Errorf("no feed can send messages")
	}
	return sender.Send(ctx, to, body)
}

// Reprint re-injects the most recent weather report.
func (d *Daemon) Reprint() error {
	d.mu.Lock()
	w := d.weather
	d.mu.Unlock()
	if w == nil {
		return fmt.Errorf("no weather feed configured")
	}
	item, ok := w.LastReport()
	if !ok {
		return fmt.Errorf("no report fetched yet")
	}
	d.scheduler.Inject(item)
	return nil
}
