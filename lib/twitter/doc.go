// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package twitter is a typed client for the slice of the Twitter v1.1
// REST API the bot uses: posting status updates, sending direct
// messages, and checking rate limit status.
//
// Requests are signed with OAuth 1.0a user context via
// github.com/dghubble/oauth1. Direct messages require a numeric
// recipient ID, so the client resolves screen names through
// users/show and caches the result; handles are stable enough that
// the cache lives for the process lifetime.
//
// API failures are returned as [*APIError] carrying the HTTP status
// and Twitter's error list, so callers can log the platform error
// code (88 is the rate limit) without string matching.
package twitter
