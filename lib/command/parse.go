// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package command

import "strings"

// commentMarker starts a free-text comment; everything from the first
// marker to the end of the body is ignored.
const commentMarker = "//"

// Command is one parsed message body: a command name and its ordered
// arguments. Name is empty when the body contained nothing but the
// mention token, whitespace, or a comment.
type Command struct {
	Name string
	Args []string
}

// Parse extracts a Command from a raw message body. mention is the
// bot's own mention token (e.g. "@boushitsu"); every occurrence is
// removed before tokenizing, so "@boushitsu ping" and "ping
// @boushitsu" parse identically.
//
// Parse is pure and has no failure mode: any input produces a
// (possibly empty) Command.
func Parse(raw, mention string) Command {
	body := raw
	if mention != "" {
		body = strings.ReplaceAll(body, mention, "")
	}
	body = strings.TrimSpace(body)

	if i := strings.Index(body, commentMarker); i >= 0 {
		body = strings.TrimSpace(body[:i])
	}

	tokens := strings.Fields(body)
	if len(tokens) == 0 {
		return Command{}
	}
	return Command{Name: tokens[0], Args: tokens[1:]}
}
