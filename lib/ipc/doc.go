// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc implements the CBOR request-response protocol the bot
// daemon serves on its Unix socket. The badge reader and the local
// admin CLI use the client half to toggle presence, inspect the
// roster, and manage the member directory without going through
// Twitter.
package ipc
