// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package auth0 implements the two HTTP legs of the authorization-code grant
// against an Auth0 tenant: building the /authorize redirect and exchanging a
// callback code for tokens plus profile claims.
package auth0

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/albrightlabs/auth0bridge/pkg/config"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
	"github.com/albrightlabs/auth0bridge/pkg/networking"
)

// DefaultScopes are the scopes requested from Auth0.
var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "email"}

// maxResponseSize bounds how much of an Auth0 response body is read.
const maxResponseSize = 1 << 20 // 1 MiB

var schemeRe = regexp.MustCompile(`^https?://`)

// NormalizeDomain turns a configured tenant domain into an issuer base URL.
// A domain missing a scheme is treated as https; trailing slashes are
// dropped.
func NormalizeDomain(domain string) string {
	domain = strings.Trim(strings.TrimSpace(domain), "/")
	if domain == "" {
		return ""
	}
	if !schemeRe.MatchString(domain) {
		domain = "https://" + domain
	}
	return domain
}

// bareHost strips any scheme from the configured domain. The /v2/logout URL
// is always built as https://<host>/v2/logout regardless of how the domain
// was configured.
func bareHost(domain string) string {
	domain = strings.Trim(strings.TrimSpace(domain), "/")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.Trim(domain, "/")
}

// Client talks to a single Auth0 tenant. It is cheap to construct and is
// rebuilt per flow step from a fresh settings snapshot.
type Client struct {
	settings   config.Settings
	issuer     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the tenant described by settings.
// Returns ErrNotConfigured when domain, client ID, or client secret are
// missing.
func NewClient(settings config.Settings, opts ...Option) (*Client, error) {
	if !settings.IsConfigured() {
		return nil, ErrNotConfigured
	}

	c := &Client{
		settings:   settings,
		issuer:     NormalizeDomain(settings.Domain),
		httpClient: networking.NewHTTPClient(networking.HTTPTimeout),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issuer returns the normalized tenant base URL.
func (c *Client) Issuer() string {
	return c.issuer
}

// clientContext binds the client's HTTP client into ctx so both go-oidc and
// the oauth2 exchange use it.
func (c *Client) clientContext(ctx context.Context) context.Context {
	return oidc.ClientContext(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), c.httpClient)
}

// discover runs OIDC discovery against the tenant. Discovery failures are
// transport-level by definition here (the config was validated at
// construction), which is exactly the case the manual fallback exists for.
func (c *Client) discover(ctx context.Context) (*oidc.Provider, error) {
	provider, err := oidc.NewProvider(c.clientContext(ctx), c.issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", c.issuer, err)
	}
	return provider, nil
}

// staticEndpoint derives the tenant endpoints from raw configuration,
// bypassing discovery.
func (c *Client) staticEndpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  c.issuer + "/authorize",
		TokenURL: c.issuer + "/oauth/token",
	}
}

func (c *Client) oauthConfig(endpoint oauth2.Endpoint, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.settings.ClientID,
		ClientSecret: c.settings.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURI,
		Scopes:       DefaultScopes,
	}
}

// AuthorizationURL builds the URL the browser is redirected to for
// authentication. The primary path uses the discovered authorization
// endpoint; on a discovery failure the URL is constructed manually from raw
// configuration, producing a request-equivalent result.
func (c *Client) AuthorizationURL(ctx context.Context, state, redirectURI string) string {
	provider, err := c.discover(ctx)
	if err != nil {
		logger.Warnw("OIDC discovery failed, building authorize URL manually",
			"issuer", c.issuer,
			"error", err,
		)
		return c.manualAuthorizeURL(state, redirectURI)
	}

	return c.oauthConfig(provider.Endpoint(), redirectURI).AuthCodeURL(state)
}

// manualAuthorizeURL constructs the /authorize URL from raw configuration.
// It must stay request-equivalent to the discovery path: same response type,
// scopes, and parameters.
func (c *Client) manualAuthorizeURL(state, redirectURI string) string {
	params := url.Values{
		"client_id":     {c.settings.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(DefaultScopes, " ")},
		"state":         {state},
	}
	return c.issuer + "/authorize?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens, then resolves the
// user's profile claims from the userinfo endpoint. When discovery succeeded
// and an ID token is present, the ID token signature is verified before the
// claims are trusted for login.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Claims, error) {
	if code == "" {
		return nil, &UpstreamError{Message: "authorization code is required"}
	}

	endpoint := c.staticEndpoint()
	provider, err := c.discover(ctx)
	if err != nil {
		logger.Warnw("OIDC discovery failed, exchanging against derived token endpoint",
			"issuer", c.issuer,
			"error", err,
		)
	} else {
		endpoint = provider.Endpoint()
	}

	token, err := c.oauthConfig(endpoint, redirectURI).Exchange(c.clientContext(ctx), code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			upErr := &UpstreamClientError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
			logger.Errorw("auth0 token exchange rejected",
				"status_code", upErr.StatusCode,
				"body", upErr.Body,
			)
			return nil, upErr
		}
		return nil, &UpstreamError{Message: "token exchange failed", Err: err}
	}

	rawIDToken, _ := token.Extra("id_token").(string)

	if provider != nil && rawIDToken != "" {
		verifier := provider.Verifier(&oidc.Config{ClientID: c.settings.ClientID})
		if _, err := verifier.Verify(c.clientContext(ctx), rawIDToken); err != nil {
			return nil, &UpstreamError{Message: "ID token verification failed", Err: err}
		}
	}

	info, err := c.UserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	claims := claimsFromUserInfo(info)
	claims.AccessToken = token.AccessToken
	claims.RefreshToken = token.RefreshToken
	claims.IDToken = rawIDToken

	logger.Infow("auth0 code exchange successful",
		"subject", claims.Subject,
		"has_refresh_token", claims.RefreshToken != "",
		"has_id_token", claims.IDToken != "",
	)

	return claims, nil
}

// UserInfo fetches the raw claims map from the tenant's userinfo endpoint
// using the given access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	if accessToken == "" {
		return nil, &UpstreamError{Message: "access token is required"}
	}

	endpoint := c.issuer + "/userinfo"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Message: "failed to create userinfo request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: "userinfo request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &UpstreamError{Message: "failed to read userinfo response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Errorw("auth0 userinfo request failed",
			"status_code", resp.StatusCode,
			"body", string(body),
			"endpoint", endpoint,
		)
		return nil, &UpstreamClientError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	info, err := decodeJSONObject(body)
	if err != nil {
		return nil, &UpstreamError{Message: "failed to parse userinfo response", Err: err}
	}

	return info, nil
}

// LogoutURL builds the tenant's /v2/logout URL with the given returnTo
// target.
func (c *Client) LogoutURL(returnTo string) string {
	return BuildLogoutURL(c.settings.Domain, c.settings.ClientID, returnTo)
}

// BuildLogoutURL constructs the /v2/logout URL from raw configuration.
// Unlike the login legs, logout only needs a domain and client ID, so it is
// usable even when the client secret is absent. The caller checks that a
// domain is configured at all.
func BuildLogoutURL(domain, clientID, returnTo string) string {
	return fmt.Sprintf(
		"https://%s/v2/logout?client_id=%s&returnTo=%s",
		bareHost(domain),
		clientID,
		url.QueryEscape(returnTo),
	)
}
