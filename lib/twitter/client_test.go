// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{ConsumerKey: "k"}); err == nil {
		t.Fatal("NewClient with partial credentials succeeded, want error")
	}
}

func TestPostUpdate(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statuses/update.json" {
			t.Errorf("path = %q, want /statuses/update.json", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("status"); got != "200 pong" {
			t.Errorf("status form field = %q, want %q", got, "200 pong")
		}
		json.NewEncoder(w).Encode(Tweet{IDStr: "1001", Text: "200 pong"})
	}))

	tweet, err := client.PostUpdate(context.Background(), "200 pong")
	if err != nil {
		t.Fatalf("PostUpdate: %v", err)
	}
	if tweet.IDStr != "1001" {
		t.Fatalf("tweet ID = %q, want 1001", tweet.IDStr)
	}
}

func TestPostDirectMessageResolvesAndCaches(t *testing.T) {
	userLookups := 0
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/show.json":
			userLookups++
			if got := r.URL.Query().Get("screen_name"); got != "alice" {
				t.Errorf("screen_name = %q, want alice", got)
			}
			json.NewEncoder(w).Encode(User{IDStr: "42", ScreenName: "alice"})
		case "/direct_messages/events/new.json":
			var body struct {
				Event struct {
					Type          string `json:"type"`
					MessageCreate struct {
						Target struct {
							RecipientID string `json:"recipient_id"`
						} `json:"target"`
						MessageData struct {
							Text string `json:"text"`
						} `json:"message_data"`
					} `json:"message_create"`
				} `json:"event"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding DM body: %v", err)
			}
			if body.Event.Type != "message_create" {
				t.Errorf("event type = %q, want message_create", body.Event.Type)
			}
			if body.Event.MessageCreate.Target.RecipientID != "42" {
				t.Errorf("recipient = %q, want 42", body.Event.MessageCreate.Target.RecipientID)
			}
			w.Write([]byte("{}"))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()
	if err := client.PostDirectMessage(ctx, "alice", "200 pong"); err != nil {
		t.Fatalf("PostDirectMessage: %v", err)
	}
	if err := client.PostDirectMessage(ctx, "alice", "200 pong again"); err != nil {
		t.Fatalf("second PostDirectMessage: %v", err)
	}
	if userLookups != 1 {
		t.Fatalf("users/show called %d times, want 1 (cached)", userLookups)
	}
}

func TestRateLimitStatus(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/application/rate_limit_status.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("resources"); got != "statuses" {
			t.Errorf("resources = %q, want statuses", got)
		}
		w.Write([]byte(`{
			"resources": {
				"statuses": {
					"/statuses/update": {"limit": 300, "remaining": 299, "reset": 1700000000}
				}
			}
		}`))
	}))

	resources, err := client.RateLimitStatus(context.Background(), "statuses")
	if err != nil {
		t.Fatalf("RateLimitStatus: %v", err)
	}
	limit := resources["statuses"]["/statuses/update"]
	if limit.Limit != 300 || limit.Remaining != 299 {
		t.Fatalf("limit = %+v, want 300/299", limit)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors": [{"code": 88, "message": "Rate limit exceeded"}]}`))
	}))

	_, err := client.PostUpdate(context.Background(), "hello")
	var apiError *APIError
	if !errors.As(err, &apiError) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiError.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", apiError.StatusCode)
	}
	if len(apiError.Errors) != 1 || apiError.Errors[0].Code != 88 {
		t.Fatalf("errors = %+v, want code 88", apiError.Errors)
	}
}
