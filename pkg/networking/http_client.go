// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package networking provides HTTP client utilities shared by the packages
// that talk to the identity provider.
package networking

import (
	"net/http"
	"time"
)

// HTTPTimeout is the default timeout for outgoing HTTP requests.
// The identity provider flows never retry, so a bounded timeout is the only
// thing standing between a hung upstream and a hung login.
const HTTPTimeout = 30 * time.Second

// NewHTTPClient returns an HTTP client with the given timeout.
// A zero timeout falls back to HTTPTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = HTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}
