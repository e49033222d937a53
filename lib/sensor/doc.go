// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package sensor adapts the club room's phototransistor light sensor
// to a boolean occupancy reading.
//
// The circuit is a driven pair on the GPIO header: one line powers
// the phototransistor, one line (pulled down) reads it. With the
// room's lights on, the input line reads high. Lines are requested
// per sample and released immediately so that other tooling on the
// Pi can probe the same header between reads.
//
// This is a thin leaf adapter. All debounce and failure policy lives
// in the presence oracle; an error here is reported, not interpreted.
package sensor
