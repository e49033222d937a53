// Copyright 2026 The Boushitsu Authors
// SPDX-License-Identifier: Apache-2.0

package twitter

import (
	"fmt"
	"strings"
)

// Tweet is the subset of a posted status the bot consumes.
type Tweet struct {
	IDStr string `json:"id_str"`
	Text  string `json:"text"`
	User  User   `json:"user"`
}

// User is the subset of a user profile the bot consumes.
type User struct {
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
}

// RateLimit describes the remaining budget of one API endpoint
// within the current window.
type RateLimit struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// APIError is a non-2xx response from the Twitter API.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Errors is Twitter's error list. May be empty when the body was
	// not parseable.
	Errors []ErrorDetail
}

// ErrorDetail is one entry of Twitter's error list.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("twitter: HTTP %d", e.StatusCode)
	}
	parts := make([]string, len(e.Errors))
	for i, detail := range e.Errors {
		parts[i] = fmt.Sprintf("%s (code %d)", detail.Message, detail.Code)
	}
	return fmt.Sprintf("twitter: HTTP %d: %s", e.StatusCode, strings.Join(parts, "; "))
}
