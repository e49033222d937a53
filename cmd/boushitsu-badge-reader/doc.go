// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// The boushitsu-badge-reader daemon watches a keyboard-wedge card
// reader and toggles member login state through the boushitsud
// control socket.
//
// The reader device emits one member ID per scan, terminated by a
// carriage return or newline. Each valid scan becomes a toggle
// request; repeat scans of the same badge within the holdoff window
// are dropped so a card held against the reader does not bounce the
// member in and out.
//
// Usage:
//
//	boushitsu-badge-reader -device /dev/ttyACM0 -socket /run/boushitsu/control.sock
package main
