// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package activity

import (
	"encoding/json"
	"fmt"
)

// DMLink is the Link sentinel for requests that arrived by direct
// message, which have no public URL to link back to.
const DMLink = "DM"

// Event is one account-activity payload. Exactly one of the two event
// lists is populated per payload.
type Event struct {
	TweetCreateEvents   []TweetCreateEvent   `json:"tweet_create_events"`
	DirectMessageEvents []DirectMessageEvent `json:"direct_message_events"`

	// Users maps user ID to profile for DM sender resolution.
	Users map[string]User `json:"users"`
}

// TweetCreateEvent is one public tweet creation record.
type TweetCreateEvent struct {
	InReplyToScreenName string `json:"in_reply_to_screen_name"`
	User                User   `json:"user"`
	Text                string `json:"text"`
	IDStr               string `json:"id_str"`
}

// User is the subset of a Twitter user profile the bot consumes.
type User struct {
	ScreenName string `json:"screen_name"`
}

// DirectMessageEvent is one DM activity record.
type DirectMessageEvent struct {
	Type          string         `json:"type"`
	MessageCreate *MessageCreate `json:"message_create"`
}

// MessageCreate is the payload of a "message_create" DM event.
type MessageCreate struct {
	SenderID    string      `json:"sender_id"`
	MessageData MessageData `json:"message_data"`
}

// MessageData carries the DM text.
type MessageData struct {
	Text string `json:"text"`
}

// Request is one extracted command request: who asked, what they
// wrote, where to link back, and on which channel to answer.
type Request struct {
	Username string
	Body     string
	Link     string
	Private  bool
}

// Decode parses a raw account-activity payload.
func Decode(raw []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("activity: decoding event: %w", err)
	}
	return &event, nil
}

// Extract returns the command requests in event addressed to the
// account named selfScreenName, in arrival order, with every
// self-originated record filtered out.
func (e *Event) Extract(selfScreenName string) []Request {
	var requests []Request

	for _, tweet := range e.TweetCreateEvents {
		if tweet.InReplyToScreenName != selfScreenName {
			continue
		}
		username := tweet.User.ScreenName
		if username == selfScreenName {
			// The bot's own replies mention itself; answering them
			// would loop forever.
			continue
		}
		requests = append(requests, Request{
			Username: username,
			Body:     tweet.Text,
			Link:     "https://twitter.com/" + username + "/status/" + tweet.IDStr,
			Private:  false,
		})
	}

	// A participant map with a single entry is the account messaging
	// itself; skip the whole event.
	if len(e.DirectMessageEvents) > 0 && len(e.Users) == 1 {
		return requests
	}

	for _, dm := range e.DirectMessageEvents {
		if dm.Type != "message_create" || dm.MessageCreate == nil {
			continue
		}
		sender, ok := e.Users[dm.MessageCreate.SenderID]
		if !ok {
			continue
		}
		if sender.ScreenName == selfScreenName {
			continue
		}
		requests = append(requests, Request{
			Username: sender.ScreenName,
			Body:     dm.MessageCreate.MessageData.Text,
			Link:     DMLink,
			Private:  true,
		})
	}

	return requests
}
