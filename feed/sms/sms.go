// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package sms polls a private SMS relay for stored messages, confirms
// printed ones back to it, and sends outbound messages through a
// Twilio-shaped gateway.
//
// The relay sits between the carrier and the teletype: the carrier
// webhook delivers inbound SMS to the relay, which stores them and
// serves them one at a time in serial order. Printing is the commit
// point — a message is marked printed on the relay only after the
// transport confirms it reached paper, so a crash between fetch and
// print re-serves the message instead of losing it.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/clock"
	"github.com/teleprint-works/teleprint/lib/sealed"
	"github.com/teleprint-works/teleprint/lib/secret"
)

const (
	// DefaultPollInterval is the relay poll cadence. Messages are
	// person-to-person traffic; fifteen seconds keeps the printer
	// responsive without hammering the relay.
	DefaultPollInterval = 15 * time.Second

	// DefaultGatewayURL is the outbound SMS API base.
	DefaultGatewayURL = "https://api.twilio.com/2010-04-01/"

	// DefaultAttended is the attended-hours window for reprint
	// eligibility.
	DefaultAttended = "06:00-22:00"
)

// Config assembles an SMS feed. Name, ServerURL, AccountSID, and
// PhoneNumber are required, plus gateway credentials: either an
// age-sealed CredentialsFile/IdentityFile pair or a direct AuthToken.
type Config struct {
	// Name is the feed's catalog name.
	Name string

	// ServerURL is the relay poll endpoint.
	ServerURL string

	// GatewayURL overrides DefaultGatewayURL for outbound sends.
	GatewayURL string

	// AccountSID identifies the account to both relay and gateway.
	AccountSID string

	// PhoneNumber is this machine's number in E.164 form. The relay
	// serves messages addressed to it; outbound sends originate from
	// it.
	PhoneNumber string

	// CredentialsFile is the age-sealed gateway auth token;
	// IdentityFile is the age identity that unseals it.
	CredentialsFile string
	IdentityFile    string

	// AuthToken supplies the gateway auth token directly, bypassing
	// the sealed file. The feed takes ownership and closes it.
	AuthToken *secret.Buffer

	// PollInterval overrides DefaultPollInterval.
	PollInterval time.Duration

	// Attended is the local-time window "HH:MM-HH:MM" in which idle
	// rewinds are allowed. Defaults to DefaultAttended.
	Attended string

	// Location is the timezone message headers display in. Defaults
	// to the machine's local zone.
	Location *time.Location

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Feed is an SMS relay source for the scheduler. It also implements
// feed.Sender and feed.AckReporter.
type Feed struct {
	name       string
	interval   time.Duration
	relay      *relayClient
	sendURL    string
	accountSID string
	phone      string
	authToken  *secret.Buffer
	httpClient *http.Client
	local      *time.Location
	clk        clock.Clock
	logger     *slog.Logger
	attended   window

	acks feed.Acks

	mu sync.Mutex
	// lastEmpty records whether the previous fetch found nothing new;
	// outstanding counts fetched messages not yet confirmed printed.
	// Both gate Idle: rewinding the cursor while either is unsettled
	// would re-fetch messages already on their way to paper.
	lastEmpty   bool
	outstanding int
	// lastErrorText suppresses reprints of a stored error record the
	// relay keeps serving at an unadvanced cursor.
	lastErrorText string
}

// New loads the gateway credentials and returns the feed.
func New(config Config) (*Feed, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("sms: config requires Name")
	}
	if config.ServerURL == "" {
		return nil, fmt.Errorf("sms: config requires ServerURL")
	}
	if config.AccountSID == "" {
		return nil, fmt.Errorf("sms: config requires AccountSID")
	}
	if config.PhoneNumber == "" {
		return nil, fmt.Errorf("sms: config requires PhoneNumber")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.GatewayURL == "" {
		config.GatewayURL = DefaultGatewayURL
	}
	if config.Attended == "" {
		config.Attended = DefaultAttended
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	attended, err := parseWindow(config.Attended)
	if err != nil {
		return nil, fmt.Errorf("sms: attended window: %w", err)
	}

	authToken := config.AuthToken
	if authToken == nil {
		if config.CredentialsFile == "" || config.IdentityFile == "" {
			return nil, fmt.Errorf("sms: config requires gateway credentials (sealed file pair or AuthToken)")
		}
		authToken, err = sealed.UnsealFile(config.CredentialsFile, config.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("sms: loading credentials: %w", err)
		}
	}

	return &Feed{
		name:     config.Name,
		interval: config.PollInterval,
		relay: &relayClient{
			serverURL:  config.ServerURL,
			accountSID: config.AccountSID,
			phone:      config.PhoneNumber,
			httpClient: config.HTTPClient,
		},
		sendURL:    gatewaySendURL(config.GatewayURL, config.AccountSID),
		accountSID: config.AccountSID,
		phone:      config.PhoneNumber,
		authToken:  authToken,
		httpClient: config.HTTPClient,
		local:      config.Location,
		clk:        config.Clock,
		logger:     config.Logger.With("feed", config.Name),
		attended:   attended,
	}, nil
}

// Name returns the catalog name.
func (f *Feed) Name() string { return f.name }

// PollInterval returns the fetch cadence.
func (f *Feed) PollInterval() time.Duration { return f.interval }

// Close releases the gateway credentials.
func (f *Feed) Close() error { return f.authToken.Close() }

// Idle reports whether the feed has nothing in flight and an operator
// is presumably around: the last poll found no new messages, every
// fetched message has been confirmed printed, and the clock is inside
// the attended window. The scheduler rewinds an idle feed's cursor so
// messages un-printed on the relay re-serve as low-priority reprints.
func (f *Feed) Idle(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastEmpty && f.outstanding == 0 && f.attended.contains(now.In(f.local))
}

// FetchBatch drains new messages from the relay one at a time until it
// reports nothing further, formatting each into a printable item. A
// relay-side error record or a failure after the first message becomes
// a trailing error-flagged item; the cursor advances only over
// messages actually returned.
func (f *Feed) FetchBatch(ctx context.Context, cursor feed.Cursor) ([]feed.Item, feed.Cursor, error) {
	serial := int64(cursor)
	var items []feed.Item
	sawError := false

	for {
		data, err := f.relay.getNext(ctx, serial)
		if err != nil {
			failure := &feed.TransientError{Feed: f.name, Op: "fetch messages", Err: err}
			if len(items) == 0 {
				return nil, cursor, failure
			}
			items = append(items, f.diagnostic(failure.Error()))
			break
		}
		msg, err := decodeReply(data)
		if err != nil {
			failure := &feed.FormatError{Feed: f.name, Detail: err.Error()}
			if len(items) == 0 {
				return nil, cursor, failure
			}
			items = append(items, f.diagnostic(failure.Error()))
			break
		}
		if msg == nil {
			break // relay is drained
		}
		if flag := msg.ErrorFlag; flag != "" && flag != "0" {
			// A stored error record: print it once, leave the cursor
			// alone so a later poll can move past whatever produced
			// it. The relay keeps serving the record until then, so
			// repeats are suppressed.
			sawError = true
			text := errorText(msg)
			f.mu.Lock()
			repeat := text == f.lastErrorText
			f.lastErrorText = text
			f.mu.Unlock()
			if !repeat {
				items = append(items, f.diagnostic(text))
			}
			break
		}
		if msg.Serial <= 0 {
			failure := &feed.FormatError{Feed: f.name, Detail: "relay returned a message without a serial number"}
			if len(items) == 0 {
				return nil, cursor, failure
			}
			items = append(items, f.diagnostic(failure.Error()))
			break
		}
		if msg.Serial <= serial {
			failure := &feed.FormatError{Feed: f.name, Detail: fmt.Sprintf("relay did not advance past serial %d", serial)}
			if len(items) == 0 {
				return nil, cursor, failure
			}
			items = append(items, f.diagnostic(failure.Error()))
			break
		}

		items = append(items, f.formatMessage(msg))
		serial = msg.Serial
	}

	delivered := 0
	for _, item := range items {
		if item.Serial != 0 {
			delivered++
		}
	}
	f.mu.Lock()
	if !sawError {
		f.lastErrorText = ""
	}
	f.lastEmpty = len(items) == 0
	f.outstanding += delivered
	f.mu.Unlock()

	if delivered > 0 {
		f.logger.Info("fetched messages", "count", delivered, "serial", serial)
	}
	return items, feed.Cursor(serial), nil
}

// Acknowledge queues a printed-receipt for the item. Diagnostics carry
// no serial and need none.
func (f *Feed) Acknowledge(item feed.Item) {
	if item.Serial == 0 {
		return
	}
	f.acks.Add(item)
	f.mu.Lock()
	if f.outstanding > 0 {
		f.outstanding--
	}
	f.mu.Unlock()
}

// DrainAcknowledgements sends pending printed-receipts to the relay in
// FIFO order, stopping at the first failure.
func (f *Feed) DrainAcknowledgements(ctx context.Context) bool {
	return f.acks.Drain(func(item feed.Item) error {
		if err := f.relay.markPrinted(ctx, item.Serial); err != nil {
			f.logger.Warn("printed receipt failed", "serial", item.Serial, "error", err)
			return err
		}
		f.logger.Debug("printed receipt recorded", "serial", item.Serial)
		return nil
	})
}

// PendingAcks reports the printed-receipt backlog.
func (f *Feed) PendingAcks() int { return f.acks.Len() }

// diagnostic builds an error-flagged item stamped with the current
// local time.
func (f *Feed) diagnostic(text string) feed.Item {
	return feed.Item{
		Feed:      f.name,
		Error:     true,
		ErrorText: text,
		Time:      feed.DisplayTime(f.clk.Now().In(f.local)),
	}
}

// window is a daily time range in minutes since local midnight.
type window struct {
	start, end int
}

// parseWindow parses "HH:MM-HH:MM". The range may cross midnight;
// equal endpoints mean the whole day.
func parseWindow(s string) (window, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return window{}, fmt.Errorf("%q is not HH:MM-HH:MM", s)
	}
	start, err := parseMinutes(from)
	if err != nil {
		return window{}, err
	}
	end, err := parseMinutes(to)
	if err != nil {
		return window{}, err
	}
	return window{start: start, end: end}, nil
}

func parseMinutes(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return hour*60 + minute, nil
}

func (w window) contains(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case w.start == w.end:
		return true
	case w.start < w.end:
		return minutes >= w.start && minutes < w.end
	default:
		return minutes >= w.start || minutes < w.end
	}
}
