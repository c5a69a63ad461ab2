// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package auth0

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	clientErr := &UpstreamClientError{StatusCode: 403, Body: `{"error":"invalid_grant"}`}
	assert.Equal(t, `auth0 API error (403): {"error":"invalid_grant"}`, clientErr.Error())

	wrapped := errors.New("connection refused")
	upstreamErr := &UpstreamError{Message: "token exchange failed", Err: wrapped}
	assert.Equal(t, "failed to authenticate with auth0: token exchange failed: connection refused", upstreamErr.Error())
	require.ErrorIs(t, upstreamErr, wrapped)

	bare := &UpstreamError{Message: "access token is required"}
	assert.Equal(t, "failed to authenticate with auth0: access token is required", bare.Error())

	denied := &DeniedError{Code: "access_denied", Description: "user declined"}
	assert.Equal(t, "auth0 error: access_denied - user declined", denied.Error())
}
