// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// usageHint is the grammar reminder included in every unknown-command
// response so an operator can self-correct from the reply alone.
const usageHint = "usage: <command> [args ...] [// comment]"

// Handler processes one dispatched command and returns its response
// envelope. Handlers run synchronously on the dispatch loop; a slow
// handler (the presence oracle's sampling window) intentionally
// stalls subsequent events.
type Handler func(ctx context.Context, req Request) Envelope

// Policy is a per-command authorization predicate.
type Policy int

const (
	// Unrestricted commands are open to anyone who can reach the bot.
	Unrestricted Policy = iota
	// MemberOnly commands require the requester's handle to be
	// registered in the identity directory.
	MemberOnly
	// AuthorizedOnly commands require the requester to be on the
	// static authorized-personnel allow-list.
	AuthorizedOnly
)

// ArgsAny disables argument count checking for an Entry.
const ArgsAny = -1

// Entry is one row of the command table.
type Entry struct {
	// Handler is invoked once arity and authorization pass. Required.
	Handler Handler

	// Args is the exact argument count the command requires, or
	// ArgsAny for unconstrained.
	Args int

	// Auth is the authorization policy applied before the handler
	// runs.
	Auth Policy

	// Usage is the argument signature shown in arity errors and the
	// help listing, e.g. "account.register <id> <handle>".
	Usage string

	// Summary is the one-line help description.
	Summary string
}

// MembershipFunc answers whether a handle belongs to a registered
// member. Backing storage errors fail the dispatch closed (500).
type MembershipFunc func(ctx context.Context, username string) (bool, error)

// Config holds the parameters for creating a Router.
type Config struct {
	// AuthorizedPersonnel is the static allow-list of handles
	// permitted to run AuthorizedOnly commands.
	AuthorizedPersonnel []string

	// Members answers MemberOnly checks. Required only if a
	// MemberOnly entry is registered.
	Members MembershipFunc

	// Logger receives dispatch diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Router dispatches parsed commands through a static table, applying
// each entry's arity and authorization policy and normalizing every
// outcome into an Envelope.
type Router struct {
	entries    map[string]Entry
	order      []string
	authorized map[string]bool
	members    MembershipFunc
	logger     *slog.Logger
}

// NewRouter creates an empty Router. Register commands with Handle.
func NewRouter(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authorized := make(map[string]bool, len(cfg.AuthorizedPersonnel))
	for _, handle := range cfg.AuthorizedPersonnel {
		handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
		if handle != "" {
			authorized[handle] = true
		}
	}

	return &Router{
		entries:    make(map[string]Entry),
		authorized: authorized,
		members:    cfg.Members,
		logger:     logger,
	}
}

// Handle registers a command. Panics on a duplicate name or a nil
// handler; the table is static and assembled once at startup, so
// these are programming errors.
func (r *Router) Handle(name string, entry Entry) {
	if name == "" {
		panic("command: Handle with empty name")
	}
	if entry.Handler == nil {
		panic(fmt.Sprintf("command: nil handler for %q", name))
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("command: duplicate handler for %q", name))
	}
	r.entries[name] = entry
	r.order = append(r.order, name)
}

// Dispatch routes one parsed command and returns its envelope.
//
// The order of checks is fixed: unknown command, then arity, then
// authorization, then the handler. An arity failure is reported
// privately (the requester holds the malformed text, nobody else
// needs it). A 403 does not reveal whether the command exists beyond
// what the generic forbidden message implies.
func (r *Router) Dispatch(ctx context.Context, cmd Command, req Request) Envelope {
	req.Args = cmd.Args

	entry, known := r.entries[cmd.Name]
	if cmd.Name == "" || !known {
		// The attempted name is recorded here for diagnostics; the
		// reply echoes it back so the operator sees what the bot saw.
		r.logger.Warn("bad request", "command", cmd.Name, "username", req.Username)
		return Envelope{
			Status: StatusBadRequest,
			Text:   fmt.Sprintf("Bad Request: unknown command %q (%s; send help for the command list)", cmd.Name, usageHint),
		}
	}

	if entry.Args != ArgsAny && len(cmd.Args) != entry.Args {
		r.logger.Warn("wrong number of arguments",
			"command", cmd.Name,
			"got", len(cmd.Args),
			"want", entry.Args,
		)
		return Envelope{
			Status:  StatusBadRequest,
			Text:    fmt.Sprintf("wrong number of arguments (%s)", entry.Usage),
			Private: true,
		}
	}

	switch entry.Auth {
	case AuthorizedOnly:
		if !r.authorized[req.Username] {
			r.logger.Warn("forbidden", "command", cmd.Name, "username", req.Username)
			return Envelope{Status: StatusForbidden, Text: "Forbidden"}
		}
	case MemberOnly:
		if r.members == nil {
			r.logger.Error("member-only command with no membership source", "command", cmd.Name)
			return Envelope{Status: StatusInternal, Text: "membership check unavailable"}
		}
		member, err := r.members(ctx, req.Username)
		if err != nil {
			// Fail closed: an unverifiable membership is no membership.
			r.logger.Error("membership check failed", "command", cmd.Name, "error", err)
			return Envelope{Status: StatusInternal, Text: "membership check failed"}
		}
		if !member {
			r.logger.Warn("forbidden", "command", cmd.Name, "username", req.Username)
			return Envelope{Status: StatusForbidden, Text: "Forbidden"}
		}
	}

	return entry.Handler(ctx, req)
}

// Help renders the command listing in registration order, one command
// per line. Privileged commands are flagged rather than hidden; their
// existence is not a secret, only their use is restricted.
func (r *Router) Help() string {
	var b strings.Builder
	for i, name := range r.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		entry := r.entries[name]
		label := name
		if entry.Usage != "" {
			label = entry.Usage
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(entry.Summary)
		if entry.Auth == AuthorizedOnly {
			b.WriteString(" (AUTHORIZED PERSONNEL ONLY)")
		}
	}
	return b.String()
}

// Commands returns the registered command names in registration
// order. Used by table-driven policy tests.
func (r *Router) Commands() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Entry returns the table row for name, for policy enumeration in
// tests.
func (r *Router) Entry(name string) (Entry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}
