// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package auth0

import (
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIDTokenClaims(t *testing.T) {
	t.Parallel()

	t.Run("decodes payload without verification", func(t *testing.T) {
		t.Parallel()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":                       "auth0|u1",
			"email":                     "u1@example.com",
			"https://example.com/roles": []string{"admin"},
			"iat":                       int64(1717243200),
		})
		raw, err := token.SignedString([]byte("any-key-the-decoder-never-checks"))
		require.NoError(t, err)

		claims, err := DecodeIDTokenClaims(raw)
		require.NoError(t, err)
		assert.Equal(t, "auth0|u1", claims["sub"])
		assert.Equal(t, "u1@example.com", claims["email"])
		assert.Contains(t, claims, "https://example.com/roles")

		// Numbers survive as json.Number, not float64.
		iat, ok := claims["iat"].(json.Number)
		require.True(t, ok)
		got, err := iat.Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(1717243200), got)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeIDTokenClaims("not-a-jwt")
		require.Error(t, err)

		_, err = DecodeIDTokenClaims("a.!!!.c")
		require.Error(t, err)
	})
}
