// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pfpacket/boushitsu/lib/clock"
	"github.com/pfpacket/boushitsu/lib/identity"
)

// defaultHoldoff is how long repeat scans of the same badge are
// ignored. Card readers re-emit while the card stays on the pad.
const defaultHoldoff = 3 * time.Second

// ToggleOutcome is the result of submitting one scan.
type ToggleOutcome struct {
	Handle   string
	LoggedIn bool
}

// ToggleFunc submits one member ID to the login ledger. The
// production implementation calls the daemon's control socket.
type ToggleFunc func(ctx context.Context, memberID string) (ToggleOutcome, error)

// ReaderConfig holds the dependencies for creating a Reader.
type ReaderConfig struct {
	// Input is the card reader byte stream. Required.
	Input io.Reader

	// Toggle submits accepted scans. Required.
	Toggle ToggleFunc

	// Holdoff is the repeat-scan suppression window. If zero or
	// negative, defaults to 3 s.
	Holdoff time.Duration

	// Clock provides the debounce timestamps. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives scan events. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Reader consumes card scans from a byte stream, debounces them, and
// submits toggles.
type Reader struct {
	input   io.Reader
	toggle  ToggleFunc
	holdoff time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	lastID string
	lastAt time.Time
}

// NewReader creates a Reader.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.Input == nil {
		return nil, fmt.Errorf("badge-reader: Input is required")
	}
	if cfg.Toggle == nil {
		return nil, fmt.Errorf("badge-reader: Toggle is required")
	}

	holdoff := cfg.Holdoff
	if holdoff <= 0 {
		holdoff = defaultHoldoff
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reader{
		input:   cfg.Input,
		toggle:  cfg.Toggle,
		holdoff: holdoff,
		clock:   clk,
		logger:  logger,
	}, nil
}

// scanCardLines splits on carriage return or newline. A reader in raw
// mode terminates scans with '\r'; a cooked tty or a test feeds '\n'.
func scanCardLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Run consumes scans until the input errors out or the context is
// cancelled. The caller is expected to close the input on context
// cancellation to unblock the read; Run then returns nil.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	scanner.Split(scanCardLines)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		r.handleScan(ctx, strings.TrimSpace(scanner.Text()))
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading card device: %w", err)
	}
	return fmt.Errorf("card device closed")
}

// handleScan validates, debounces, and submits one scan. Failures are
// logged and dropped; the reader never stops over a single bad scan.
func (r *Reader) handleScan(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if !identity.ValidMemberID(id) {
		r.logger.Warn("unreadable badge scan", "length", len(id))
		return
	}

	now := r.clock.Now()
	if id == r.lastID && now.Sub(r.lastAt) < r.holdoff {
		r.logger.Debug("scan suppressed within holdoff", "member_id", identity.Redact(id))
		return
	}
	r.lastID = id
	r.lastAt = now

	outcome, err := r.toggle(ctx, id)
	if err != nil {
		r.logger.Error("toggle failed", "member_id", identity.Redact(id), "error", err)
		return
	}

	direction := "leaving"
	if outcome.LoggedIn {
		direction = "entering"
	}
	r.logger.Info("badge scan",
		"member", outcome.Handle,
		"direction", direction,
	)
}
