// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package clientcredentials issues machine-to-machine access tokens via the
// OAuth 2.0 client credentials grant, caching them until shortly before
// expiry so repeated API calls do not hammer the token endpoint.
package clientcredentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	ccreds "golang.org/x/oauth2/clientcredentials"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// DefaultTokenTTL is how long an issued token is cached when the token
// response does not carry its own expiry.
const DefaultTokenTTL = 24 * time.Hour

// expirySlack is subtracted from the upstream expiry so a cached token is
// never handed out moments before it lapses.
const expirySlack = 5 * time.Minute

// Exchanger obtains client-credentials tokens for a single Auth0 API
// audience.
type Exchanger struct {
	domain       string
	clientID     string
	clientSecret string
	audience     string
	cache        Cache
	httpClient   *http.Client
}

// Option configures an Exchanger.
type Option func(*Exchanger)

// WithCache sets the token cache. Defaults to an in-process cache.
func WithCache(cache Cache) Option {
	return func(e *Exchanger) {
		e.cache = cache
	}
}

// WithHTTPClient overrides the HTTP client used for the token request.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Exchanger) {
		e.httpClient = client
	}
}

// NewExchanger creates an Exchanger for the given tenant and API audience.
// Returns auth0.ErrNotConfigured when domain, client ID or secret is empty.
func NewExchanger(domain, clientID, clientSecret, audience string, opts ...Option) (*Exchanger, error) {
	if domain == "" || clientID == "" || clientSecret == "" {
		return nil, auth0.ErrNotConfigured
	}

	e := &Exchanger{
		domain:       auth0.NormalizeDomain(domain),
		clientID:     clientID,
		clientSecret: clientSecret,
		audience:     audience,
		cache:        NewMemoryCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Token returns an access token for the configured audience, serving from
// cache when a live token is available.
func (e *Exchanger) Token(ctx context.Context) (string, error) {
	key := e.cacheKey()
	if token, ok := e.cache.Get(ctx, key); ok {
		return token, nil
	}

	token, ttl, err := e.exchange(ctx)
	if err != nil {
		return "", err
	}

	if err := e.cache.Put(ctx, key, token, ttl); err != nil {
		// A cache failure is not fatal; the token itself is good.
		logger.Warnw("failed to cache client credentials token", "error", err)
	}
	return token, nil
}

// Invalidate drops the cached token, forcing the next Token call to hit the
// token endpoint. Use after an API call rejects the token.
func (e *Exchanger) Invalidate(ctx context.Context) error {
	return e.cache.Delete(ctx, e.cacheKey())
}

func (e *Exchanger) exchange(ctx context.Context) (string, time.Duration, error) {
	cfg := ccreds.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		TokenURL:     e.domain + "/oauth/token",
	}
	if e.audience != "" {
		cfg.EndpointParams = map[string][]string{"audience": {e.audience}}
	}

	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	token, err := cfg.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", 0, &auth0.UpstreamClientError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return "", 0, &auth0.UpstreamError{Message: "client credentials exchange failed", Err: err}
	}

	ttl := DefaultTokenTTL
	if !token.Expiry.IsZero() {
		ttl = time.Until(token.Expiry) - expirySlack
		if ttl <= 0 {
			return "", 0, &auth0.UpstreamError{
				Message: fmt.Sprintf("token already expired at %s", token.Expiry),
			}
		}
	}
	return token.AccessToken, ttl, nil
}

// cacheKey hashes the credentials so the raw secret never appears in a cache
// key or Redis keyspace listing.
func (e *Exchanger) cacheKey() string {
	sum := sha256.Sum256([]byte(e.domain + "|" + e.clientID + "|" + e.clientSecret + "|" + e.audience))
	return hex.EncodeToString(sum[:])
}
