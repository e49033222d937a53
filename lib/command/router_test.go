// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func okHandler(text string) Handler {
	return func(ctx context.Context, req Request) Envelope {
		return Envelope{Status: StatusOK, Text: text}
	}
}

// trapHandler fails the test if it is ever invoked.
func trapHandler(t *testing.T) Handler {
	return func(ctx context.Context, req Request) Envelope {
		t.Fatal("handler invoked, want dispatch rejected before the handler")
		return Envelope{}
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})
	router.Handle("ping", Entry{Handler: okHandler("pong"), Usage: "ping"})

	envelope := router.Dispatch(context.Background(), Command{Name: "foo", Args: []string{"bar"}}, Request{Username: "alice"})

	if envelope.Status != StatusBadRequest {
		t.Fatalf("status = %d, want 400", envelope.Status)
	}
	if !strings.Contains(envelope.Text, `"foo"`) {
		t.Fatalf("unknown-command reply %q does not echo the attempted name", envelope.Text)
	}
	if !strings.Contains(envelope.Text, "usage: <command> [args ...] [// comment]") {
		t.Fatalf("unknown-command reply %q lacks usage guidance", envelope.Text)
	}
}

func TestDispatchEmptyCommand(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})

	envelope := router.Dispatch(context.Background(), Command{}, Request{Username: "alice"})
	if envelope.Status != StatusBadRequest {
		t.Fatalf("status = %d, want 400", envelope.Status)
	}
}

func TestDispatchArityMismatch(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})
	router.Handle("account.register", Entry{
		Handler: trapHandler(t),
		Args:    2,
		Usage:   "account.register <id> <handle>",
	})

	envelope := router.Dispatch(context.Background(),
		Command{Name: "account.register", Args: []string{"12345678"}},
		Request{Username: "alice"})

	if envelope.Status != StatusBadRequest {
		t.Fatalf("status = %d, want 400", envelope.Status)
	}
	if !envelope.Private {
		t.Fatal("arity failure must be reported privately")
	}
	if !strings.Contains(envelope.Text, "account.register <id> <handle>") {
		t.Fatalf("arity reply %q lacks the usage signature", envelope.Text)
	}
}

func TestDispatchArityUnconstrained(t *testing.T) {
	router := NewRouter(Config{
		AuthorizedPersonnel: []string{"root"},
		Logger:              discard(),
	})
	router.Handle("bou", Entry{
		Handler: okHandler("ran"),
		Args:    ArgsAny,
		Auth:    AuthorizedOnly,
		Usage:   "bou <argv ...>",
	})

	envelope := router.Dispatch(context.Background(),
		Command{Name: "bou", Args: []string{"uptime", "-p"}},
		Request{Username: "root"})
	if envelope.Status != StatusOK {
		t.Fatalf("status = %d, want 200", envelope.Status)
	}
}

func TestDispatchForbidden(t *testing.T) {
	router := NewRouter(Config{
		AuthorizedPersonnel: []string{"root", "@admin"},
		Logger:              discard(),
	})
	router.Handle("stop", Entry{
		Handler: trapHandler(t),
		Auth:    AuthorizedOnly,
		Usage:   "stop",
	})

	envelope := router.Dispatch(context.Background(), Command{Name: "stop"}, Request{Username: "mallory"})

	if envelope.Status != StatusForbidden {
		t.Fatalf("status = %d, want 403", envelope.Status)
	}
	if envelope.Shutdown != ShutdownNone {
		t.Fatal("forbidden terminal command must not signal shutdown")
	}
	// The forbidden reply must not confirm the command exists.
	if strings.Contains(envelope.Text, "stop") {
		t.Fatalf("forbidden reply %q leaks the command name", envelope.Text)
	}
}

func TestDispatchAllowListNormalizesAtPrefix(t *testing.T) {
	router := NewRouter(Config{
		AuthorizedPersonnel: []string{"@admin"},
		Logger:              discard(),
	})
	router.Handle("restart", Entry{
		Handler: okHandler("Restarting"),
		Auth:    AuthorizedOnly,
		Usage:   "restart",
	})

	envelope := router.Dispatch(context.Background(), Command{Name: "restart"}, Request{Username: "admin"})
	if envelope.Status != StatusOK {
		t.Fatalf("status = %d, want 200 for allow-listed user", envelope.Status)
	}
}

func TestDispatchMemberOnly(t *testing.T) {
	members := func(ctx context.Context, username string) (bool, error) {
		return username == "alice", nil
	}
	router := NewRouter(Config{Members: members, Logger: discard()})
	router.Handle("whoami", Entry{
		Handler: okHandler("you are a member"),
		Auth:    MemberOnly,
		Usage:   "whoami",
	})

	envelope := router.Dispatch(context.Background(), Command{Name: "whoami"}, Request{Username: "alice"})
	if envelope.Status != StatusOK {
		t.Fatalf("member dispatch status = %d, want 200", envelope.Status)
	}

	envelope = router.Dispatch(context.Background(), Command{Name: "whoami"}, Request{Username: "mallory"})
	if envelope.Status != StatusForbidden {
		t.Fatalf("non-member dispatch status = %d, want 403", envelope.Status)
	}
}

func TestDispatchMemberCheckFailsClosed(t *testing.T) {
	members := func(ctx context.Context, username string) (bool, error) {
		return true, errors.New("ledger unavailable")
	}
	router := NewRouter(Config{Members: members, Logger: discard()})
	router.Handle("whoami", Entry{Handler: trapHandler(t), Auth: MemberOnly, Usage: "whoami"})

	envelope := router.Dispatch(context.Background(), Command{Name: "whoami"}, Request{Username: "alice"})
	if envelope.Status != StatusInternal {
		t.Fatalf("status = %d, want 500 when membership source errors", envelope.Status)
	}
}

func TestDispatchPassesRequestToHandler(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})
	router.Handle("echo", Entry{
		Handler: func(ctx context.Context, req Request) Envelope {
			return Envelope{Status: StatusOK, Text: strings.Join(req.Args, " ") + " from " + req.Username}
		},
		Args:  ArgsAny,
		Usage: "echo [words ...]",
	})

	envelope := router.Dispatch(context.Background(),
		Command{Name: "echo", Args: []string{"hello", "world"}},
		Request{Username: "alice", Link: "https://twitter.com/alice/status/1", Private: false})

	if envelope.Text != "hello world from alice" {
		t.Fatalf("handler saw wrong request: %q", envelope.Text)
	}
}

func TestHelpListsCommandsInRegistrationOrder(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})
	router.Handle("ping", Entry{Handler: okHandler("pong"), Usage: "ping", Summary: "check the service is up"})
	router.Handle("stop", Entry{Handler: okHandler("bye"), Auth: AuthorizedOnly, Usage: "stop", Summary: "stop the bot"})

	help := router.Help()
	lines := strings.Split(help, "\n")
	if len(lines) != 2 {
		t.Fatalf("help has %d lines, want 2:\n%s", len(lines), help)
	}
	if !strings.HasPrefix(lines[0], "ping:") {
		t.Fatalf("first help line = %q, want ping first", lines[0])
	}
	if !strings.Contains(lines[1], "AUTHORIZED PERSONNEL ONLY") {
		t.Fatalf("privileged command not flagged in help: %q", lines[1])
	}
}

func TestHandleRejectsDuplicates(t *testing.T) {
	router := NewRouter(Config{Logger: discard()})
	router.Handle("ping", Entry{Handler: okHandler("pong"), Usage: "ping"})

	defer func() {
		if recover() == nil {
			t.Fatal("duplicate Handle did not panic")
		}
	}()
	router.Handle("ping", Entry{Handler: okHandler("pong"), Usage: "ping"})
}
