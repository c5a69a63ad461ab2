// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
)

func TestDeriveName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		claims    auth0.Claims
		wantFirst string
		wantLast  string
	}{
		{
			name: "given and family name win",
			claims: auth0.Claims{
				GivenName:  "Jane",
				FamilyName: "Doe",
				Name:       "Someone Else",
				Nickname:   "jd",
				Email:      "other@example.com",
			},
			wantFirst: "Jane",
			wantLast:  "Doe",
		},
		{
			name: "given name without family name",
			claims: auth0.Claims{
				GivenName: "Jane",
			},
			wantFirst: "Jane",
			wantLast:  "",
		},
		{
			name: "display name split on first space",
			claims: auth0.Claims{
				Name: "Jane Q Doe",
			},
			wantFirst: "Jane",
			wantLast:  "Q Doe",
		},
		{
			name: "single-word display name",
			claims: auth0.Claims{
				Name: "Jane",
			},
			wantFirst: "Jane",
			wantLast:  "",
		},
		{
			name: "nickname with space is split",
			claims: auth0.Claims{
				Nickname: "jane doe",
			},
			wantFirst: "jane",
			wantLast:  "doe",
		},
		{
			name: "nickname without space is first name only",
			claims: auth0.Claims{
				Nickname: "janed",
			},
			wantFirst: "janed",
			wantLast:  "",
		},
		{
			name: "email local-part with dot",
			claims: auth0.Claims{
				Email: "jane.doe@example.com",
			},
			wantFirst: "jane",
			wantLast:  "doe",
		},
		{
			name: "email local-part with underscore",
			claims: auth0.Claims{
				Email: "jane_doe@example.com",
			},
			wantFirst: "jane",
			wantLast:  "doe",
		},
		{
			name: "plain email local-part",
			claims: auth0.Claims{
				Email: "jane@example.com",
			},
			wantFirst: "jane",
			wantLast:  "",
		},
		{
			name:      "nothing usable falls back to sentinel",
			claims:    auth0.Claims{},
			wantFirst: SentinelFirstName,
			wantLast:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			first, last := DeriveName(&tt.claims)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}
