// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package auth0

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeIDTokenClaims extracts the payload claims from a raw ID token
// without verifying its signature.
//
// This is a non-authoritative enrichment step only: the result must never be
// used for authorization decisions. Verified identity comes from the code
// exchange (see Client.ExchangeCode); this helper only recovers extra
// profile claims (e.g. namespaced custom claims) that the userinfo endpoint
// may not return.
func DecodeIDTokenClaims(rawIDToken string) (map[string]any, error) {
	parts := strings.Split(rawIDToken, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed ID token: expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode ID token payload: %w", err)
	}

	return decodeJSONObject(payload)
}

// decodeJSONObject unmarshals a JSON object into a claims map, using
// json.Number for numeric claims so large values survive round-tripping.
func decodeJSONObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}
