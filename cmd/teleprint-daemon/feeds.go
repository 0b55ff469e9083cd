// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/feed/sms"
	"github.com/teleprint-works/teleprint/feed/weather"
	"github.com/teleprint-works/teleprint/lib/feeddef"
)

// settleDelay is how long a catalog change is left to settle before
// the reload reads it. Editors write in bursts of create, write, and
// rename events.
const settleDelay = 200 * time.Millisecond

// buildFeeds returns the adapter set for catalog. Adapters whose
// definitions are unchanged carry over as the same instance, which is
// what keeps their queue position across a reload; the scheduler
// restarts a feed's loop whenever the instance under a name changes.
// On failure the running set is left exactly as it was.
func (d *Daemon) buildFeeds(ctx context.Context, catalog *feeddef.Catalog) ([]feed.Feed, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := make(map[feeddef.Definition]feed.Feed, len(catalog.Feeds))
	feeds := make([]feed.Feed, 0, len(catalog.Feeds))
	var fresh []io.Closer

	for _, def := range catalog.Feeds {
		if existing, ok := d.feeds[def]; ok {
			next[def] = existing
			feeds = append(feeds, existing)
			continue
		}
		adapter, err := d.newAdapter(ctx, def)
		if err != nil {
			for _, closer := range fresh {
				closer.Close()
			}
			return nil, fmt.Errorf("feed %q: %w", def.Name, err)
		}
		next[def] = adapter
		feeds = append(feeds, adapter)
		if closer, ok := adapter.(io.Closer); ok {
			fresh = append(fresh, closer)
		}
	}

	// Release adapters whose definitions are gone or changed.
	for def, old := range d.feeds {
		if _, kept := next[def]; kept {
			continue
		}
		if closer, ok := old.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				d.logger.Warn("closing removed feed", "feed", def.Name, "error", err)
			}
		}
	}
	d.feeds = next

	d.weather = nil
	for _, f := range feeds {
		if w, ok := f.(reprinter); ok {
			d.weather = w
			break
		}
	}
	return feeds, nil
}

func (d *Daemon) newAdapter(ctx context.Context, def feeddef.Definition) (feed.Feed, error) {
	switch def.Type {
	case feeddef.TypeWeather:
		return weather.New(ctx, weather.Config{
			Name:         def.Name,
			ZIP:          def.ZIP,
			City:         def.City,
			State:        def.State,
			PollInterval: def.PollIntervalDuration(),
			Horizon:      def.HorizonDuration(),
			Logger:       d.logger,
		})
	case feeddef.TypeSMS:
		return sms.New(sms.Config{
			Name:            def.Name,
			ServerURL:       def.ServerURL,
			GatewayURL:      def.GatewayURL,
			AccountSID:      def.AccountSID,
			PhoneNumber:     def.PhoneNumber,
			CredentialsFile: def.CredentialsFile,
			IdentityFile:    def.IdentityFile,
			PollInterval:    def.PollIntervalDuration(),
			Attended:        def.Attended,
			Logger:          d.logger,
		})
	default:
		return nil, fmt.Errorf("unknown feed type %q", def.Type)
	}
}

// watchCatalog applies catalog edits to the running scheduler. A file
// that fails to parse or validate is logged and ignored; the running
// set stays as it was.
func (d *Daemon) watchCatalog(ctx context.Context) {
	dir := filepath.Dir(d.cfg.FeedsFile)
	name := filepath.Base(d.cfg.FeedsFile)

	changes, stop, err := watchFile(dir, name)
	if err != nil {
		d.logger.Error("catalog watch failed, live reload disabled", "error", err)
		return
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(settleDelay):
		}
		d.reloadCatalog(ctx)
	}
}

func (d *Daemon) reloadCatalog(ctx context.Context) {
	catalog, err := feeddef.ReadFile(d.cfg.FeedsFile)
	if err != nil {
		d.logger.Error("catalog reload failed", "error", err)
		return
	}
	if issues := feeddef.Validate(catalog); len(issues) > 0 {
		d.logger.Error("catalog rejected", "issues", strings.Join(issues, "; "))
		return
	}
	feeds, err := d.buildFeeds(ctx, catalog)
	if err != nil {
		d.logger.Error("catalog reload failed", "error", err)
		return
	}
	d.scheduler.Update(feeds)
	d.logger.Info("catalog reloaded", "feeds", len(feeds))
}
