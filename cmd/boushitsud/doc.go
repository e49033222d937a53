// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Command boushitsud is the club-room presence bot daemon.
//
// It subscribes to a Beebotte MQTT topic carrying the Twitter account
// activity stream, extracts mentions and direct messages addressed to
// the bot, parses them into commands, and replies over Twitter. It
// also serves a local Unix-socket CBOR protocol used by the badge
// reader and the boushitsu CLI to toggle member presence and inspect
// the roster.
//
// Commands arrive as free text ("@its_bt ITS.isOpen // checking") and
// are dispatched through a static table with per-command argument
// count and authorization policies. Privileged commands (stop,
// restart, update, account management) are restricted to a configured
// allow-list of screen names.
//
// Configuration comes from a single YAML file, selected by --config
// or the BOUSHITSU_CONFIG environment variable.
package main
