// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package command implements the bot's text command protocol: parsing
// free-form message bodies into commands, and table-driven dispatch
// with per-command arity and authorization policies.
//
// The wire grammar is deliberately tiny:
//
//	cmd arg1 arg2 ... // optional comment
//
// [Parse] strips the bot's own mention token, truncates at the first
// comment marker, and splits the rest on whitespace. It is pure and
// total: malformed input yields an empty command, never an error.
//
// [Router] holds a static table mapping command names to handlers.
// Each [Entry] declares its argument count and authorization policy,
// so tests can enumerate every command's policy without invoking its
// side effects. Handlers return an [Envelope]; process-terminating
// commands signal termination through [Envelope.Shutdown] rather than
// exiting themselves, keeping every handler testable in-process. The
// dispatch loop observes the signal after the reply is sent and
// performs the actual exit or re-exec.
package command
