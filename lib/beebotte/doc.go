// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

// Package beebotte subscribes to the Beebotte MQTT bridge that relays
// Twitter account-activity webhooks to the bot.
//
// Twitter's account-activity API only delivers to public HTTPS
// endpoints; the bot runs on a Raspberry Pi behind the club's NAT.
// Beebotte bridges the gap: the webhook target is a Beebotte channel,
// and the bot subscribes to that channel over MQTT with TLS and
// token auth.
//
// Each MQTT message carries a Beebotte record envelope whose data
// items hold the original account-activity payload as a JSON-encoded
// string. [DecodeRecord] unwraps the envelope; the [Client] delivers
// the inner payloads, in publish order, on [Client.Events].
//
// Reconnection is delegated to the underlying paho client, which
// resubscribes on every (re)connect. The transport is a thin wrapper
// by design: all command semantics live behind it.
package beebotte
