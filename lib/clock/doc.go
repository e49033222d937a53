// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects [Real]; tests inject [Fake] and advance it explicitly.
//
// The bot's time-sensitive paths all go through this interface: the
// presence oracle's inter-sample delay and per-sample timeout, the
// badge reader's duplicate-tap holdoff, and the daemon's uptime
// reporting. None of them call the time package directly, so every
// one of them can be tested without real sleeps.
package clock
