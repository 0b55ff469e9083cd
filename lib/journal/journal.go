// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records every item that reached paper as a line of
// JSON, so the operator can reconstruct a day's traffic after the roll
// is torn off. The active file is plain JSON lines for greppability;
// when it crosses the size threshold it is zstd-compressed into a
// timestamped archive and a fresh file starts.
package journal

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/clock"
)

const (
	// DefaultMaxFileSize is the rotation threshold for the active
	// file. A megabyte holds weeks of traffic at teleprinter speeds.
	DefaultMaxFileSize = 1 << 20

	activeName  = "journal.jsonl"
	stampLayout = "20060102-150405"
)

// zstdEncoder and zstdDecoder are reused across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("journal: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("journal: zstd decoder initialization failed: " + err.Error())
	}
}

// Entry is one journalled print. The fields mirror the printed item;
// Digest is the item's content digest in hex, usable to spot reprints
// across files.
type Entry struct {
	PrintedAt time.Time `json:"printed_at"`
	Feed      string    `json:"feed"`
	From      string    `json:"from,omitempty"`
	Time      string    `json:"time,omitempty"`
	Date      string    `json:"date,omitempty"`
	Body      string    `json:"body,omitempty"`
	Error     bool      `json:"error,omitempty"`
	ErrorText string    `json:"error_text,omitempty"`
	Serial    int64     `json:"serial,omitempty"`
	Digest    string    `json:"digest"`
}

// Config assembles a Journal. Dir is required.
type Config struct {
	// Dir is the journal directory, created if absent.
	Dir string

	// MaxFileSize overrides DefaultMaxFileSize.
	MaxFileSize int64

	// Clock defaults to the real clock. Archive names come from it.
	Clock clock.Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Journal appends print records to the active file and rotates it into
// compressed archives. Safe for concurrent use.
type Journal struct {
	dir     string
	maxSize int64
	clk     clock.Clock
	logger  *slog.Logger

	mu   sync.Mutex
	file *os.File
	size int64
}

// Open creates the journal directory if needed and opens the active
// file for appending, picking up where a previous run left off.
func Open(config Config) (*Journal, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("journal: config requires Dir")
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = DefaultMaxFileSize
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: creating %s: %w", config.Dir, err)
	}

	j := &Journal{
		dir:     config.Dir,
		maxSize: config.MaxFileSize,
		clk:     config.Clock,
		logger:  config.Logger,
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.openActiveLocked(); err != nil {
		return nil, err
	}
	return j, nil
}

// ActivePath returns the path of the uncompressed journal file.
func (j *Journal) ActivePath() string {
	return filepath.Join(j.dir, activeName)
}

// Record appends one printed item. The write is synced to disk before
// returning.
func (j *Journal) Record(item feed.Item, printedAt time.Time) error {
	digest := item.Digest()
	line, err := json.Marshal(Entry{
		PrintedAt: printedAt.UTC(),
		Feed:      item.Feed,
		From:      item.From,
		Time:      item.Time,
		Date:      item.Date,
		Body:      item.Body,
		Error:     item.Error,
		ErrorText: item.ErrorText,
		Serial:    item.Serial,
		Digest:    hex.EncodeToString(digest[:]),
	})
	if err != nil {
		return fmt.Errorf("journal: encoding entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return fmt.Errorf("journal: closed")
	}
	n, err := j.file.Write(line)
	j.size += int64(n)
	if err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("journal: sync: %w", err)
	}
	if j.size >= j.maxSize {
		if err := j.rotateLocked(); err != nil {
			return fmt.Errorf("journal: rotate: %w", err)
		}
	}
	return nil
}

// Close syncs and closes the active file. Idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := errors.Join(j.file.Sync(), j.file.Close())
	j.file = nil
	return err
}

// rotateLocked archives the active file and starts a fresh one. If
// archiving fails the active file reopens in place, so the journal
// keeps appending (and retries the rotation on the next record).
func (j *Journal) rotateLocked() error {
	closeErr := j.file.Close()
	j.file = nil
	archiveErr := j.archiveLocked()
	openErr := j.openActiveLocked()
	return errors.Join(closeErr, archiveErr, openErr)
}

func (j *Journal) archiveLocked() error {
	data, err := os.ReadFile(j.ActivePath())
	if err != nil {
		return err
	}
	archive := filepath.Join(j.dir,
		"journal-"+j.clk.Now().UTC().Format(stampLayout)+".jsonl.zst")
	tmp := archive + ".tmp"
	if err := os.WriteFile(tmp, zstdEncoder.EncodeAll(data, nil), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, archive); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Remove(j.ActivePath()); err != nil {
		return err
	}
	j.logger.Info("rotated journal", "archive", filepath.Base(archive), "bytes", len(data))
	return nil
}

func (j *Journal) openActiveLocked() error {
	file, err := os.OpenFile(j.ActivePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal: opening %s: %w", j.ActivePath(), err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("journal: stat %s: %w", j.ActivePath(), err)
	}
	j.file = file
	j.size = info.Size()
	return nil
}

// Read loads the entries of one journal file, decompressing archives
// by their .zst suffix.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	if strings.HasSuffix(path, ".zst") {
		data, err = zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("journal: decompressing %s: %w", path, err)
		}
	}

	var entries []Entry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("journal: parsing %s: %w", path, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
