// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package auth0

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the Auth0 domain, client ID, or client
// secret are missing. The flow cannot start without them.
var ErrNotConfigured = errors.New("auth0 is not properly configured")

// UpstreamClientError is a non-2xx HTTP response from Auth0. The status and
// body are logged; handlers surface only a generic message to the browser.
type UpstreamClientError struct {
	// StatusCode is the HTTP status returned by Auth0.
	StatusCode int

	// Body is the response body, truncated to a reasonable size.
	Body string
}

// Error implements the error interface.
func (e *UpstreamClientError) Error() string {
	return fmt.Sprintf("auth0 API error (%d): %s", e.StatusCode, e.Body)
}

// UpstreamError is a transport or parse failure while talking to Auth0.
type UpstreamError struct {
	// Message describes the failing operation.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to authenticate with auth0: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("failed to authenticate with auth0: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// DeniedError is an error reported by Auth0 on the callback redirect via the
// "error" and "error_description" query parameters (e.g. access_denied).
type DeniedError struct {
	// Code is the OAuth error code from the "error" parameter.
	Code string

	// Description is the human-readable description from Auth0.
	Description string
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("auth0 error: %s - %s", e.Code, e.Description)
}
