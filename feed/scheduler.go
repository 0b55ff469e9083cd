// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teleprint-works/teleprint/lib/clock"
)

// DefaultFetchTimeout bounds each FetchBatch call. A timed-out fetch
// surfaces as a transient failure and the cycle retries next interval.
const DefaultFetchTimeout = 30 * time.Second

// SchedulerConfig assembles a Scheduler. Deliver is required; every
// other field has a working default.
type SchedulerConfig struct {
	// Deliver prints one formatted item and returns nil once the
	// device has confirmed it. The confirmation gates acknowledgement.
	Deliver func(ctx context.Context, text string) error

	// OnDelivered, when set, observes each item after Deliver
	// confirms it and before its origin is acknowledged. The daemon
	// journals from here. Must not block on the network.
	OnDelivered func(item Item)

	// FetchTimeout overrides DefaultFetchTimeout.
	FetchTimeout time.Duration

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler owns one polling loop per feed and the single consumer
// that drains the shared queue to the printer. Loops are independent:
// nothing synchronizes them except arrival order in the queue.
type Scheduler struct {
	queue        *Queue
	deliver      func(context.Context, string) error
	onDelivered  func(Item)
	fetchTimeout time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	printed atomic.Uint64

	mu     sync.Mutex
	runCtx context.Context
	loops  map[string]*feedLoop
	wg     sync.WaitGroup
}

// feedLoop is the scheduler-side state of one running feed.
type feedLoop struct {
	feed   Feed
	cancel context.CancelFunc

	mu        sync.Mutex
	cursor    Cursor
	lastError string
}

func (l *feedLoop) getCursor() Cursor {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

func (l *feedLoop) setCursor(cursor Cursor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cursor = cursor
}

// noteError records the failure text and reports whether it repeats
// the previous cycle's, so each distinct failure prints once rather
// than every retry.
func (l *feedLoop) noteError(text string) (repeated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastError == text {
		return true
	}
	l.lastError = text
	return false
}

func (l *feedLoop) clearError() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastError = ""
}

func (l *feedLoop) getError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastError
}

// NewScheduler validates the config and returns a Scheduler.
func NewScheduler(config SchedulerConfig) (*Scheduler, error) {
	if config.Deliver == nil {
		return nil, fmt.Errorf("feed: scheduler config requires Deliver")
	}
	s := &Scheduler{
		queue:        NewQueue(),
		deliver:      config.Deliver,
		onDelivered:  config.OnDelivered,
		fetchTimeout: config.FetchTimeout,
		clock:        config.Clock,
		logger:       config.Logger,
		loops:        make(map[string]*feedLoop),
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Run starts the consumer and a polling loop per feed, then blocks
// until the context ends or delivery fails. A device write failure is
// fatal: the printer is the whole point, so Run returns the error and
// the daemon exits rather than silently dropping paper output.
func (s *Scheduler) Run(ctx context.Context, feeds []Feed) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.runCtx = runCtx
	s.mu.Unlock()

	consumerDone := make(chan error, 1)
	go func() { consumerDone <- s.consume(runCtx) }()

	s.Update(feeds)

	err := <-consumerDone
	cancel()

	s.mu.Lock()
	for _, l := range s.loops {
		l.cancel()
	}
	s.loops = make(map[string]*feedLoop)
	s.runCtx = nil
	s.mu.Unlock()
	s.wg.Wait()

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Update reconciles the running loops against the given feed set:
// loops start for added feeds and stop for removed ones. A feed whose
// instance is unchanged keeps its loop (and cursor); a new instance
// under an existing name restarts that feed's loop from the beginning.
// Safe to call while Run is active; the daemon calls it on catalog
// reload.
func (s *Scheduler) Update(feeds []Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runCtx == nil {
		s.logger.Warn("feed update ignored, scheduler not running")
		return
	}

	keep := make(map[string]bool, len(feeds))
	for _, f := range feeds {
		name := f.Name()
		keep[name] = true
		if existing, ok := s.loops[name]; ok {
			if existing.feed == f {
				continue
			}
			existing.cancel()
		}
		s.startLoopLocked(f)
	}
	for name, l := range s.loops {
		if !keep[name] {
			l.cancel()
			delete(s.loops, name)
		}
	}
}

func (s *Scheduler) startLoopLocked(f Feed) {
	loopCtx, cancel := context.WithCancel(s.runCtx)
	l := &feedLoop{feed: f, cancel: cancel, cursor: CursorStart}
	s.loops[f.Name()] = l
	s.wg.Add(1)
	go s.runLoop(loopCtx, l)
}

// Inject enqueues a locally-originated item. Operator and control
// traffic shares the paper with feed traffic in arrival order.
func (s *Scheduler) Inject(item Item) {
	s.queue.Push(item)
}

// Sender returns a running feed that can originate outbound messages,
// or nil if none can. With several candidates the first by name wins.
func (s *Scheduler) Sender() Sender {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.loops))
	for name := range s.loops {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if sender, ok := s.loops[name].feed.(Sender); ok {
			return sender
		}
	}
	return nil
}

// runLoop is one feed's polling loop: drain acknowledgements, fetch,
// push, then sleep out the remainder of the interval. The interval is
// measured from cycle start, so an overrunning fetch delays the next
// cycle without compounding — and a cycle never overlaps itself.
func (s *Scheduler) runLoop(ctx context.Context, l *feedLoop) {
	defer s.wg.Done()

	logger := s.logger.With("feed", l.feed.Name())
	logger.Info("feed loop started", "interval", l.feed.PollInterval())
	defer logger.Info("feed loop stopped")

	for {
		// A canceled loop stops here even if the wakeup below raced
		// with cancellation.
		if ctx.Err() != nil {
			return
		}

		cycleStart := s.clock.Now()
		s.cycle(ctx, l, logger)
		if ctx.Err() != nil {
			return
		}

		elapsed := s.clock.Now().Sub(cycleStart)
		if wait := l.feed.PollInterval() - elapsed; wait > 0 {
			select {
			case <-s.clock.After(wait):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context, l *feedLoop, logger *slog.Logger) {
	feed := l.feed

	// Acknowledgements go out before the fetch; acknowledging after
	// would re-deliver items the source still counts as unprinted. An
	// incomplete drain does not block the fetch — the cursor protects
	// the normal path — but see below for the idle reset.
	drained := feed.DrainAcknowledgements(ctx)
	if !drained {
		logger.Warn("acknowledgement backlog not fully flushed")
	}

	cursor := l.getCursor()
	// An idle feed restarts from the beginning so server-revived items
	// can reprint — but never with acknowledgements outstanding: the
	// source still counts those items unprinted and a reset would
	// fetch them straight back onto the paper.
	if drained && cursor != CursorStart && feed.Idle(s.clock.Now()) {
		logger.Info("feed idle, restarting from the beginning")
		cursor = CursorStart
		l.setCursor(cursor)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	items, next, err := feed.FetchBatch(fetchCtx, cursor)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return // shutting down, not a source failure
		}
		s.reportCycleError(l, logger, err)
		return // cursor unchanged for transient and format failures alike
	}

	l.clearError()
	l.setCursor(next)
	for _, item := range items {
		s.queue.Push(item)
	}
	if len(items) > 0 {
		logger.Debug("fetched items", "count", len(items), "cursor", int64(next))
	}
}

// reportCycleError turns a cycle failure into a printed diagnostic, so
// an unattended operator sees it on paper. Identical consecutive
// failures print once; the dedupe clears on the next success.
func (s *Scheduler) reportCycleError(l *feedLoop, logger *slog.Logger, err error) {
	text := err.Error()
	if l.noteError(text) {
		logger.Debug("suppressing repeated failure", "error", text)
		return
	}
	logger.Warn("feed cycle failed", "error", err)

	now := s.clock.Now()
	s.queue.Push(Item{
		Feed:      l.feed.Name(),
		Time:      DisplayTime(now),
		Date:      DisplayDate(now),
		Error:     true,
		ErrorText: text,
	})
}

// consume is the single consumer: items leave the queue in arrival
// order, print, and only then acknowledge to their origin feed.
func (s *Scheduler) consume(ctx context.Context) error {
	for {
		item, err := s.queue.Next(ctx)
		if err != nil {
			return err
		}
		if err := s.deliver(ctx, Format(item)); err != nil {
			return fmt.Errorf("feed: printing item %d from %s: %w", item.Seq, item.Feed, err)
		}
		s.printed.Add(1)
		if s.onDelivered != nil {
			s.onDelivered(item)
		}

		if origin := s.feedByName(item.Feed); origin != nil {
			origin.Acknowledge(item)
		}
	}
}

func (s *Scheduler) feedByName(name string) Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.loops[name]; ok {
		return l.feed
	}
	return nil
}

// FeedStatus is one feed's entry in a Status report.
type FeedStatus struct {
	Name         string `json:"name"`
	PollInterval string `json:"poll_interval"`
	Idle         bool   `json:"idle"`
	Cursor       int64  `json:"cursor"`
	PendingAcks  int    `json:"pending_acks"`
	LastError    string `json:"last_error,omitempty"`
}

// Status is a point-in-time snapshot for the control surface.
type Status struct {
	Feeds      []FeedStatus `json:"feeds"`
	QueueDepth int          `json:"queue_depth"`
	Printed    uint64       `json:"printed"`
}

// Status reports the running feeds (sorted by name), queue depth, and
// the count of items printed since start.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	loops := make([]*feedLoop, 0, len(s.loops))
	for _, l := range s.loops {
		loops = append(loops, l)
	}
	s.mu.Unlock()

	now := s.clock.Now()
	status := Status{
		QueueDepth: s.queue.Len(),
		Printed:    s.printed.Load(),
	}
	for _, l := range loops {
		entry := FeedStatus{
			Name:         l.feed.Name(),
			PollInterval: l.feed.PollInterval().String(),
			Idle:         l.feed.Idle(now),
			Cursor:       int64(l.getCursor()),
			LastError:    l.getError(),
		}
		if reporter, ok := l.feed.(AckReporter); ok {
			entry.PendingAcks = reporter.PendingAcks()
		}
		status.Feeds = append(status.Feeds, entry)
	}
	sort.Slice(status.Feeds, func(i, j int) bool {
		return status.Feeds[i].Name < status.Feeds[j].Name
	})
	return status
}
