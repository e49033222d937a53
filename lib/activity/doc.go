// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package activity decodes Twitter account-activity events and
// extracts the command requests addressed to the bot.
//
// Two event shapes arrive on the stream: public mention batches
// (tweet_create_events) and direct-message batches
// (direct_message_events plus a users map for sender resolution).
// [Extract] filters out everything self-originated before any
// parsing happens: mentions authored by the bot's own account, and
// DM events whose participant map contains only the bot (a DM from
// the account to itself). Without this filter the bot would reply to
// its own replies forever.
//
// Extraction preserves arrival order; the daemon dispatches the
// resulting requests strictly one at a time.
package activity
