// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/pfpacket/boushitsu/lib/codec"
	"github.com/pfpacket/boushitsu/lib/identity"
	"github.com/pfpacket/boushitsu/lib/ipc"
	"github.com/pfpacket/boushitsu/lib/version"
)

// toggleResult is the response payload of the toggle action.
type toggleResult struct {
	MemberID string `cbor:"member_id"`
	Handle   string `cbor:"handle"`
	LoggedIn bool   `cbor:"logged_in"`
}

// rosterEntry is one logged-in member in the roster action response.
type rosterEntry struct {
	MemberID string `cbor:"member_id"`
	Handle   string `cbor:"handle"`
}

// statusResult is the response payload of the status action.
type statusResult struct {
	Version       string `cbor:"version"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
	RoomState     string `cbor:"room_state"`
	LoggedIn      int    `cbor:"logged_in"`
}

// registerActions wires the daemon's control-socket protocol. The
// badge reader submits toggles here; the boushitsu CLI uses the rest.
func (b *Bot) registerActions(server *ipc.SocketServer) {
	server.Handle("toggle", b.actionToggle)
	server.Handle("roster", b.actionRoster)
	server.Handle("logout-all", b.actionLogoutAll)
	server.Handle("resolve", b.actionResolve)
	server.Handle("status", b.actionStatus)
}

// actionToggle flips one member's login state from a badge scan.
// Member IDs are redacted in responses the same way they are in
// Twitter replies; the raw ID never leaves the ledger.
func (b *Bot) actionToggle(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		MemberID string `cbor:"member_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if !identity.ValidMemberID(request.MemberID) {
		return nil, fmt.Errorf("invalid member ID")
	}

	loggedIn, err := b.ledger.Toggle(ctx, request.MemberID)
	if err != nil {
		return nil, fmt.Errorf("toggling login state: %w", err)
	}

	handle := b.directory.Resolve(ctx, request.MemberID)
	b.logger.Info("badge toggle", "member", handle, "logged_in", loggedIn)

	return toggleResult{
		MemberID: identity.Redact(request.MemberID),
		Handle:   handle,
		LoggedIn: loggedIn,
	}, nil
}

func (b *Bot) actionRoster(ctx context.Context, raw []byte) (any, error) {
	ids, err := b.ledger.LoggedInIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	entries := make([]rosterEntry, len(ids))
	for i, id := range ids {
		entries[i] = rosterEntry{
			MemberID: identity.Redact(id),
			Handle:   b.directory.Resolve(ctx, id),
		}
	}
	return entries, nil
}

func (b *Bot) actionLogoutAll(ctx context.Context, raw []byte) (any, error) {
	if err := b.ledger.LogoutAll(ctx); err != nil {
		return nil, fmt.Errorf("logging out all members: %w", err)
	}
	b.logger.Info("logout-all via control socket")
	return nil, nil
}

func (b *Bot) actionResolve(ctx context.Context, raw []byte) (any, error) {
	var request struct {
		MemberID string `cbor:"member_id"`
	}
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if !identity.ValidMemberID(request.MemberID) {
		return nil, fmt.Errorf("invalid member ID")
	}
	return map[string]string{
		"handle": b.directory.Resolve(ctx, request.MemberID),
	}, nil
}

func (b *Bot) actionStatus(ctx context.Context, raw []byte) (any, error) {
	ids, err := b.ledger.LoggedInIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return statusResult{
		Version:       version.Info(),
		UptimeSeconds: int64(b.clock.Now().Sub(b.startedAt).Seconds()),
		RoomState:     b.cachedRoomState(),
		LoggedIn:      len(ids),
	}, nil
}
