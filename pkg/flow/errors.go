// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package flow

import "errors"

// ErrMissingCode indicates the callback arrived without an authorization
// code. The attempt is dead; the user must restart at begin-login.
var ErrMissingCode = errors.New("no authorization code received from auth0")

// ErrMissingState indicates the callback arrived without a state parameter.
// This might indicate a CSRF attempt.
var ErrMissingState = errors.New("no state parameter received from auth0, possible CSRF")

// ErrStateMismatch indicates the callback state does not match the value
// stored in the session at begin-login. Either the session was lost across
// the redirect or the callback was forged.
var ErrStateMismatch = errors.New("state parameter does not match session state, possible CSRF")
