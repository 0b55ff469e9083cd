// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package weather polls the National Weather Service for worded
// forecasts and emits them as self-contained printable reports.
//
// The service is snapshot-shaped: every poll returns the whole current
// forecast, so the numeric cursor carries no information and duplicate
// suppression works by digest instead. A report prints when its content
// differs from the last printed one — on startup, when the forecast
// changes, or when the operator asks for a reprint.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/teleprint-works/teleprint/feed"
)

const (
	// DefaultPollInterval is how often the forecast re-fetches.
	// Forecasts regenerate roughly hourly; polling much faster only
	// reprints silence.
	DefaultPollInterval = 30 * time.Minute

	// DefaultHorizon bounds how far ahead the printed report looks.
	DefaultHorizon = 72 * time.Hour
)

// Config assembles a weather feed. Exactly one place selector is
// required: a ZIP code, or a city and state pair.
type Config struct {
	// Name is the feed's catalog name.
	Name string

	// ZIP selects the forecast point by US ZIP code.
	ZIP string

	// City and State select the forecast point by place name when ZIP
	// is empty.
	City  string
	State string

	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration

	// Horizon overrides DefaultHorizon.
	Horizon time.Duration

	// ForecastURL, ZipLookupURL, and GazetteerURL override the
	// service endpoints.
	ForecastURL  string
	ZipLookupURL string
	GazetteerURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Location is the timezone reports display in. Defaults to the
	// machine's local zone.
	Location *time.Location

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Feed is a weather source for the scheduler.
type Feed struct {
	name        string
	interval    time.Duration
	horizon     time.Duration
	forecastURL string
	client      *http.Client
	local       *time.Location
	logger      *slog.Logger
	lat, lon    float64

	mu         sync.Mutex
	idle       bool
	lastDigest [32]byte
	haveDigest bool
	lastItem   feed.Item
	haveItem   bool
}

// New resolves the configured place to coordinates and returns the
// feed. Resolution happens once, here: a bad place name should fail
// startup, not produce an error item every poll.
func New(ctx context.Context, config Config) (*Feed, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("weather: config requires Name")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Horizon <= 0 {
		config.Horizon = DefaultHorizon
	}
	if config.ForecastURL == "" {
		config.ForecastURL = defaultForecastURL
	}
	if config.ZipLookupURL == "" {
		config.ZipLookupURL = defaultZipLookupURL
	}
	if config.GazetteerURL == "" {
		config.GazetteerURL = defaultGazetteerURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	f := &Feed{
		name:        config.Name,
		interval:    config.PollInterval,
		horizon:     config.Horizon,
		forecastURL: config.ForecastURL,
		client:      config.HTTPClient,
		local:       config.Location,
		logger:      config.Logger.With("feed", config.Name),
	}

	switch {
	case config.ZIP != "":
		lat, lon, err := resolveZIP(ctx, config.HTTPClient, config.ZipLookupURL, config.ZIP)
		if err != nil {
			return nil, err
		}
		f.lat, f.lon = lat, lon
		f.logger.Info("weather location resolved", "zip", config.ZIP, "lat", lat, "lon", lon)
	case config.City != "" && config.State != "":
		place, lat, lon, err := resolvePlace(ctx, config.HTTPClient, config.GazetteerURL, config.City, config.State)
		if err != nil {
			return nil, err
		}
		f.lat, f.lon = lat, lon
		f.logger.Info("weather location resolved", "place", place, "lat", lat, "lon", lon)
	default:
		return nil, fmt.Errorf("weather: no location configured (need zip, or city and state)")
	}
	return f, nil
}

// Name returns the catalog name.
func (f *Feed) Name() string { return f.name }

// PollInterval returns the fetch cadence.
func (f *Feed) PollInterval() time.Duration { return f.interval }

// Idle reports whether the last poll found nothing new to print.
func (f *Feed) Idle(time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idle
}

// FetchBatch fetches and parses the current forecast. The cursor is
// accepted and returned for the scheduler's bookkeeping but carries no
// position; an unchanged forecast returns no items.
func (f *Feed) FetchBatch(ctx context.Context, cursor feed.Cursor) ([]feed.Item, feed.Cursor, error) {
	params := url.Values{
		"lat":      {fmt.Sprintf("%.4f", f.lat)},
		"lon":      {fmt.Sprintf("%.4f", f.lon)},
		"unit":     {"0"},
		"lg":       {"english"},
		"FcstType": {"dwml"},
	}
	data, err := fetchXML(ctx, f.client, f.forecastURL, params)
	if err != nil {
		return nil, cursor, &feed.TransientError{Feed: f.name, Op: "fetch forecast", Err: err}
	}
	parsed, err := parseDWML(data)
	if err != nil {
		return nil, cursor, &feed.FormatError{Feed: f.name, Detail: err.Error()}
	}

	// The digest covers what would print, minus the creation time:
	// the service regenerates hourly and a fresh timestamp on
	// identical words is not news.
	body := parsed.periodsText(f.horizon, f.local)
	digest := blake3.Sum256([]byte(parsed.Location + "\x00" + body))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.haveDigest && digest == f.lastDigest {
		f.idle = true
		f.logger.Debug("forecast unchanged", "location", parsed.Location)
		return nil, 1, nil
	}

	item := feed.Item{Feed: f.name, Body: parsed.report(f.horizon, f.local)}
	f.lastDigest, f.haveDigest = digest, true
	f.lastItem, f.haveItem = item, true
	f.idle = false
	f.logger.Info("forecast updated", "location", parsed.Location, "periods", len(parsed.Periods))
	return []feed.Item{item}, 1, nil
}

// Acknowledge is a no-op: the service has no delivery state to update.
func (f *Feed) Acknowledge(feed.Item) {}

// DrainAcknowledgements is a no-op that always reports drained.
func (f *Feed) DrainAcknowledgements(context.Context) bool { return true }

// LastReport returns the most recent successfully parsed report, for
// operator-requested reprints.
func (f *Feed) LastReport() (feed.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastItem, f.haveItem
}
