// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/pfpacket/boushitsu/lib/clock"
)

func newTestScanner(input string) *bufio.Scanner {
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanCardLines)
	return scanner
}

// toggleRecorder captures submitted member IDs.
type toggleRecorder struct {
	ids []string
	err error
}

func (r *toggleRecorder) toggle(ctx context.Context, memberID string) (ToggleOutcome, error) {
	if r.err != nil {
		return ToggleOutcome{}, r.err
	}
	r.ids = append(r.ids, memberID)
	return ToggleOutcome{Handle: "@member", LoggedIn: true}, nil
}

func runReader(t *testing.T, input string, clk clock.Clock, recorder *toggleRecorder) error {
	t.Helper()
	reader, err := NewReader(ReaderConfig{
		Input:   strings.NewReader(input),
		Toggle:  recorder.toggle,
		Holdoff: 3 * time.Second,
		Clock:   clk,
		Logger:  slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("creating reader: %v", err)
	}
	return reader.Run(context.Background())
}

func TestReaderSubmitsValidScans(t *testing.T) {
	recorder := &toggleRecorder{}
	// Raw-mode readers terminate with '\r'; a cooked stream with '\n'.
	err := runReader(t, "ab12cd34\ref56gh78\n", clock.Fake(time.Unix(0, 0)), recorder)

	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("Run = %v, want device-closed error at EOF", err)
	}
	want := []string{"ab12cd34", "ef56gh78"}
	if len(recorder.ids) != len(want) || recorder.ids[0] != want[0] || recorder.ids[1] != want[1] {
		t.Errorf("submitted = %v, want %v", recorder.ids, want)
	}
}

func TestReaderSkipsInvalidScans(t *testing.T) {
	recorder := &toggleRecorder{}
	runReader(t, "short\r\rtoolongmemberid99\rab12cd34\r", clock.Fake(time.Unix(0, 0)), recorder)

	if len(recorder.ids) != 1 || recorder.ids[0] != "ab12cd34" {
		t.Errorf("submitted = %v, want only the valid scan", recorder.ids)
	}
}

func TestReaderDebouncesRepeatScans(t *testing.T) {
	recorder := &toggleRecorder{}
	// Same badge three times with the clock standing still: the
	// repeats fall inside the holdoff.
	runReader(t, "ab12cd34\rab12cd34\rab12cd34\r", clock.Fake(time.Unix(0, 0)), recorder)

	if len(recorder.ids) != 1 {
		t.Errorf("submitted %d toggles for a held card, want 1: %v", len(recorder.ids), recorder.ids)
	}
}

func TestReaderDifferentBadgeBypassesHoldoff(t *testing.T) {
	recorder := &toggleRecorder{}
	runReader(t, "ab12cd34\ref56gh78\rab12cd34\r", clock.Fake(time.Unix(0, 0)), recorder)

	// A different badge is never suppressed, and returning to the
	// first badge resets against its own last submission.
	want := []string{"ab12cd34", "ef56gh78", "ab12cd34"}
	if len(recorder.ids) != 3 {
		t.Fatalf("submitted = %v, want %v", recorder.ids, want)
	}
	for i := range want {
		if recorder.ids[i] != want[i] {
			t.Errorf("submitted[%d] = %q, want %q", i, recorder.ids[i], want[i])
		}
	}
}

func TestReaderAcceptsRepeatAfterHoldoff(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	recorder := &toggleRecorder{}
	reader, err := NewReader(ReaderConfig{
		Input:   strings.NewReader("ab12cd34\r"),
		Toggle:  recorder.toggle,
		Holdoff: 3 * time.Second,
		Clock:   clk,
		Logger:  slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("creating reader: %v", err)
	}
	reader.Run(context.Background())

	clk.Advance(5 * time.Second)
	reader.handleScan(context.Background(), "ab12cd34")

	if len(recorder.ids) != 2 {
		t.Errorf("submitted %d toggles across the holdoff, want 2", len(recorder.ids))
	}
}

func TestReaderToleratesToggleFailure(t *testing.T) {
	recorder := &toggleRecorder{err: fmt.Errorf("socket refused")}
	err := runReader(t, "ab12cd34\r", clock.Fake(time.Unix(0, 0)), recorder)

	// The failure is logged, not fatal; Run keeps going to EOF.
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("Run = %v, want device-closed error, not the toggle failure", err)
	}
}

func TestReaderRequiresInputAndToggle(t *testing.T) {
	if _, err := NewReader(ReaderConfig{Toggle: (&toggleRecorder{}).toggle}); err == nil {
		t.Error("NewReader accepted a nil Input")
	}
	if _, err := NewReader(ReaderConfig{Input: strings.NewReader("")}); err == nil {
		t.Error("NewReader accepted a nil Toggle")
	}
}

func TestScanCardLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"carriage returns", "a\rb\r", []string{"a", "b"}},
		{"newlines", "a\nb\n", []string{"a", "b"}},
		{"crlf pairs", "a\r\nb\r\n", []string{"a", "", "b", ""}},
		{"unterminated tail", "a\rb", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			scanner := newTestScanner(tt.input)
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			if len(got) != len(tt.want) {
				t.Fatalf("tokens = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
