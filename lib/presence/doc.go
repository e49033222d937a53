// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package presence decides whether the club room is open by majority
// vote over a window of noisy light-sensor samples.
//
// A single sensor read flickers: people walk past the sensor, the
// tube light takes a moment to strike, the reader itself glitches.
// The [Oracle] takes nine samples half a second apart and reports
// open only when a strict majority (five or more) read true. The
// ~4.5 second blocking read is a deliberate debounce, acceptable at
// this system's event rate of a handful of commands per minute.
//
// Every failure mode reads as closed: a sensor error, a sample that
// hangs past its timeout, and a cancelled context all contribute
// false samples. An unconfirmed room is a closed room.
package presence
