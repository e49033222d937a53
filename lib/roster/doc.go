// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster maintains the membership login ledger: one boolean
// per member ID, flipped by badge scans.
//
// The ledger is deliberately NOT idempotent. Each physical badge tap
// means "I am entering" or "I am leaving", so [Ledger.Toggle] flips
// the state and replaying the same tap twice logs the member back
// out. Callers (the badge reader) guarantee at most one Toggle per
// physical tap by debouncing repeat reads at the source.
//
// Missed exit scans leave stale logged-in rows behind. The bot
// self-heals them with [Ledger.LogoutAll] whenever the presence
// oracle confirms the room is closed: nobody can be logged in to a
// dark room.
//
// Storage errors always surface as errors, never as an empty roster,
// so the bot reports "ledger unavailable" rather than lying about an
// empty room.
package roster
