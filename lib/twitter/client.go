// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dghubble/oauth1"
)

// defaultBaseURL is the production API root. Tests point BaseURL at a
// local httptest server.
const defaultBaseURL = "https://api.twitter.com/1.1"

// maxResponseSize bounds a decoded API response. The payloads the bot
// reads are tiny; 1 MB is generous.
const maxResponseSize = 1024 * 1024

// Config holds the credentials and transport for creating a Client.
type Config struct {
	// ConsumerKey and ConsumerSecret identify the application.
	ConsumerKey    string
	ConsumerSecret string

	// AccessToken and AccessSecret identify the bot's account.
	AccessToken  string
	AccessSecret string

	// BaseURL overrides the API root. Defaults to the production
	// endpoint; set it in tests.
	BaseURL string

	// HTTPClient overrides the OAuth-signing client. When set, the
	// OAuth credentials are unused; tests use this to talk to a
	// local server without signing.
	HTTPClient *http.Client

	// Logger receives request diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is a typed Twitter v1.1 API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// userIDs caches screen name to numeric ID resolutions for DM
	// targeting.
	userIDsMu sync.Mutex
	userIDs   map[string]string
}

// NewClient creates a Client from the configuration. Unless an
// explicit HTTPClient is supplied, all four OAuth credentials are
// required.
func NewClient(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
			return nil, fmt.Errorf("twitter: all four OAuth credentials are required")
		}
		oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
		httpClient = oauthConfig.Client(oauth1.NoContext, token)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		userIDs:    make(map[string]string),
	}, nil
}

// PostUpdate posts a public status update and returns the created
// tweet.
func (c *Client) PostUpdate(ctx context.Context, text string) (*Tweet, error) {
	form := url.Values{"status": {text}}

	var tweet Tweet
	err := c.do(ctx, http.MethodPost, "/statuses/update.json", form, nil, &tweet)
	if err != nil {
		return nil, fmt.Errorf("posting update: %w", err)
	}

	c.logger.Info("posted update", "tweet_id", tweet.IDStr)
	return &tweet, nil
}

// PostDirectMessage sends a direct message to the user with the given
// screen name, resolving the recipient ID through the cache.
func (c *Client) PostDirectMessage(ctx context.Context, screenName, text string) error {
	recipientID, err := c.resolveUserID(ctx, screenName)
	if err != nil {
		return err
	}

	body := map[string]any{
		"event": map[string]any{
			"type": "message_create",
			"message_create": map[string]any{
				"target":       map[string]any{"recipient_id": recipientID},
				"message_data": map[string]any{"text": text},
			},
		},
	}

	if err := c.do(ctx, http.MethodPost, "/direct_messages/events/new.json", nil, body, nil); err != nil {
		return fmt.Errorf("sending direct message to @%s: %w", screenName, err)
	}

	c.logger.Info("sent direct message", "recipient", screenName)
	return nil
}

// RateLimitStatus returns the per-endpoint rate limits for the given
// resource families (e.g. "statuses", "direct_messages").
func (c *Client) RateLimitStatus(ctx context.Context, families ...string) (map[string]map[string]RateLimit, error) {
	path := "/application/rate_limit_status.json"
	if len(families) > 0 {
		path += "?resources=" + url.QueryEscape(strings.Join(families, ","))
	}

	var response struct {
		Resources map[string]map[string]RateLimit `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &response); err != nil {
		return nil, fmt.Errorf("checking rate limit: %w", err)
	}
	return response.Resources, nil
}

// resolveUserID maps a screen name to its numeric ID, consulting the
// process-lifetime cache first.
func (c *Client) resolveUserID(ctx context.Context, screenName string) (string, error) {
	c.userIDsMu.Lock()
	cached, ok := c.userIDs[screenName]
	c.userIDsMu.Unlock()
	if ok {
		return cached, nil
	}

	var user User
	path := "/users/show.json?screen_name=" + url.QueryEscape(screenName)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return "", fmt.Errorf("resolving @%s: %w", screenName, err)
	}

	c.userIDsMu.Lock()
	c.userIDs[screenName] = user.IDStr
	c.userIDsMu.Unlock()
	return user.IDStr, nil
}

// do performs one API request. Exactly one of form and jsonBody may
// be non-nil. A non-2xx response decodes into *APIError.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, jsonBody any, out any) error {
	var body io.Reader
	contentType := ""
	switch {
	case form != nil:
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case jsonBody != nil:
		encoded, err := json.Marshal(jsonBody)
		if err != nil {
			return fmt.Errorf("twitter: encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("twitter: building request: %w", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("twitter: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("twitter: reading response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		apiError := &APIError{StatusCode: response.StatusCode}
		// Best effort: an unparseable error body still yields the
		// HTTP status.
		var details struct {
			Errors []ErrorDetail `json:"errors"`
		}
		if json.Unmarshal(payload, &details) == nil {
			apiError.Errors = details.Errors
		}
		return apiError
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("twitter: decoding response: %w", err)
		}
	}
	return nil
}
