// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"testing"
)

const self = "boushitsu"

func TestExtractPublicMention(t *testing.T) {
	raw := []byte(`{
		"tweet_create_events": [
			{
				"in_reply_to_screen_name": "boushitsu",
				"user": {"screen_name": "alice"},
				"text": "@boushitsu ITS.isOpen",
				"id_str": "1001"
			}
		]
	}`)

	event, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	requests := event.Extract(self)
	if len(requests) != 1 {
		t.Fatalf("extracted %d requests, want 1", len(requests))
	}

	got := requests[0]
	want := Request{
		Username: "alice",
		Body:     "@boushitsu ITS.isOpen",
		Link:     "https://twitter.com/alice/status/1001",
		Private:  false,
	}
	if got != want {
		t.Fatalf("request = %+v, want %+v", got, want)
	}
}

func TestExtractSkipsMentionsOfOthers(t *testing.T) {
	event := &Event{
		TweetCreateEvents: []TweetCreateEvent{
			{
				InReplyToScreenName: "someoneelse",
				User:                User{ScreenName: "alice"},
				Text:                "ping",
				IDStr:               "1",
			},
		},
	}

	if requests := event.Extract(self); len(requests) != 0 {
		t.Fatalf("extracted %d requests from a mention of another account, want 0", len(requests))
	}
}

func TestExtractSkipsSelfReply(t *testing.T) {
	event := &Event{
		TweetCreateEvents: []TweetCreateEvent{
			{
				InReplyToScreenName: self,
				User:                User{ScreenName: self},
				Text:                "200 pong",
				IDStr:               "2",
			},
		},
	}

	if requests := event.Extract(self); len(requests) != 0 {
		t.Fatalf("extracted %d requests from the bot's own reply, want 0", len(requests))
	}
}

func TestExtractDirectMessage(t *testing.T) {
	raw := []byte(`{
		"direct_message_events": [
			{
				"type": "message_create",
				"message_create": {
					"sender_id": "42",
					"message_data": {"text": "ITS.getLoggedInMembers"}
				}
			}
		],
		"users": {
			"42": {"screen_name": "alice"},
			"7":  {"screen_name": "boushitsu"}
		}
	}`)

	event, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	requests := event.Extract(self)
	if len(requests) != 1 {
		t.Fatalf("extracted %d requests, want 1", len(requests))
	}

	got := requests[0]
	want := Request{
		Username: "alice",
		Body:     "ITS.getLoggedInMembers",
		Link:     DMLink,
		Private:  true,
	}
	if got != want {
		t.Fatalf("request = %+v, want %+v", got, want)
	}
}

func TestExtractSkipsSelfDM(t *testing.T) {
	event := &Event{
		DirectMessageEvents: []DirectMessageEvent{
			{
				Type: "message_create",
				MessageCreate: &MessageCreate{
					SenderID:    "7",
					MessageData: MessageData{Text: "note to self"},
				},
			},
		},
		// Single participant: the account talking to itself.
		Users: map[string]User{"7": {ScreenName: self}},
	}

	if requests := event.Extract(self); len(requests) != 0 {
		t.Fatalf("extracted %d requests from a self-DM, want 0", len(requests))
	}
}

func TestExtractSkipsOwnMessagesInConversation(t *testing.T) {
	event := &Event{
		DirectMessageEvents: []DirectMessageEvent{
			{
				Type: "message_create",
				MessageCreate: &MessageCreate{
					SenderID:    "7",
					MessageData: MessageData{Text: "200 pong"},
				},
			},
			{
				Type: "message_create",
				MessageCreate: &MessageCreate{
					SenderID:    "42",
					MessageData: MessageData{Text: "ping"},
				},
			},
		},
		Users: map[string]User{
			"7":  {ScreenName: self},
			"42": {ScreenName: "alice"},
		},
	}

	requests := event.Extract(self)
	if len(requests) != 1 {
		t.Fatalf("extracted %d requests, want 1", len(requests))
	}
	if requests[0].Username != "alice" {
		t.Fatalf("request from %q, want alice", requests[0].Username)
	}
}

func TestExtractIgnoresNonMessageCreateEvents(t *testing.T) {
	event := &Event{
		DirectMessageEvents: []DirectMessageEvent{
			{Type: "message_delete"},
		},
		Users: map[string]User{
			"7":  {ScreenName: self},
			"42": {ScreenName: "alice"},
		},
	}

	if requests := event.Extract(self); len(requests) != 0 {
		t.Fatalf("extracted %d requests from non-create DM events, want 0", len(requests))
	}
}

func TestExtractPreservesArrivalOrder(t *testing.T) {
	event := &Event{
		TweetCreateEvents: []TweetCreateEvent{
			{InReplyToScreenName: self, User: User{ScreenName: "alice"}, Text: "ping", IDStr: "1"},
			{InReplyToScreenName: self, User: User{ScreenName: "bob"}, Text: "help", IDStr: "2"},
		},
	}

	requests := event.Extract(self)
	if len(requests) != 2 {
		t.Fatalf("extracted %d requests, want 2", len(requests))
	}
	if requests[0].Username != "alice" || requests[1].Username != "bob" {
		t.Fatalf("order = [%s %s], want [alice bob]", requests[0].Username, requests[1].Username)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatal("Decode of malformed payload succeeded, want error")
	}
}
