// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package command

// Status is the response code embedded as the first token of every
// reply body.
type Status int

const (
	// StatusOK is a successful command.
	StatusOK Status = 200
	// StatusBadRequest is a malformed request: unknown command or
	// wrong argument count.
	StatusBadRequest Status = 400
	// StatusForbidden is a privileged command from a user outside
	// the allow-list.
	StatusForbidden Status = 403
	// StatusNotFound is an empty result set. Not an error: "no one
	// is logged in" is a perfectly good answer.
	StatusNotFound Status = 404
	// StatusInternal is a storage or subprocess failure.
	StatusInternal Status = 500
)

// Shutdown is the terminate-after-send signal carried by an Envelope.
// Handlers never exit the process themselves; the dispatch loop acts
// on this signal once the reply (and any broadcast) has been sent.
type Shutdown int

const (
	// ShutdownNone keeps the process running.
	ShutdownNone Shutdown = iota
	// ShutdownStop exits the process cleanly.
	ShutdownStop
	// ShutdownRestart re-execs the current binary.
	ShutdownRestart
	// ShutdownUpdate re-execs the freshly updated binary.
	ShutdownUpdate
)

// Envelope is the normalized result of one handler invocation:
// exactly one is produced per dispatched command and consumed by
// exactly one reply send.
type Envelope struct {
	// Status is the response code. The reply channel renders it as
	// the first token of the body.
	Status Status

	// Text is the response body, without the status code.
	Text string

	// Private forces the reply onto the direct-message channel even
	// for a public mention (e.g. rosters, which are never tweeted).
	// Replies to direct messages are always private regardless.
	Private bool

	// Broadcast, when non-empty, is additionally posted publicly to
	// everyone. Terminal commands use it to announce the shutdown.
	Broadcast string

	// Shutdown is the terminate-after-send signal.
	Shutdown Shutdown
}

// Request is the per-invocation context passed to a handler.
type Request struct {
	// Username is the requester's public handle, without "@".
	Username string

	// Args are the parsed command arguments, in order.
	Args []string

	// Link is the canonical URL of the originating public post, or
	// the "DM" sentinel for direct messages.
	Link string

	// Private reports whether the command arrived by direct message.
	Private bool
}
