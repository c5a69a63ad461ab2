// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package flow orchestrates the browser-facing login flow: begin-login,
// provider callback, logout, and the webhook relay. It owns CSRF-state and
// redirect-target validation and is the single boundary that converts the
// error taxonomy into HTTP responses.
package flow

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/config"
	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/identity"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
	"github.com/albrightlabs/auth0bridge/pkg/session"
)

// CallbackPath is where Auth0 redirects after authentication.
const CallbackPath = "/auth0/callback"

// Controller handles the HTTP-facing login flow operations.
type Controller struct {
	config     config.Provider
	sessions   *session.Manager
	engine     *identity.Engine
	events     events.Sink
	devMode    bool
	clientOpts []auth0.Option
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDevMode enables diagnostic error responses. Never enable in
// production: it renders raw errors and stack traces to the browser.
func WithDevMode(dev bool) ControllerOption {
	return func(c *Controller) {
		c.devMode = dev
	}
}

// WithClientOptions passes options through to every auth0.Client the
// controller builds. Tests use this to inject an HTTP client.
func WithClientOptions(opts ...auth0.Option) ControllerOption {
	return func(c *Controller) {
		c.clientOpts = opts
	}
}

// NewController creates a login flow controller.
func NewController(
	cfg config.Provider,
	sessions *session.Manager,
	engine *identity.Engine,
	sink events.Sink,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		config:   cfg,
		sessions: sessions,
		engine:   engine,
		events:   sink,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Routes registers the browser-facing endpoints.
func (c *Controller) Routes(r chi.Router) {
	r.Get("/auth0/login", c.handleLogin)
	r.Get(CallbackPath, c.handleCallback)
	r.Get("/auth0/logout", c.handleLogout)
	r.Post("/auth0/webhook", c.handleWebhook)
}

// newClient builds an Auth0 client from a settings snapshot.
func (c *Controller) newClient(settings config.Settings) (*auth0.Client, error) {
	return auth0.NewClient(settings, c.clientOpts...)
}

// fail is the error boundary. Nothing in the flow retries: every error is
// terminal for the current request and the user restarts at begin-login.
func (c *Controller) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.Errorw("auth0 flow failed",
		"path", r.URL.Path,
		"error", err,
	)

	if c.devMode {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Auth0 Error: %v\n\nTrace:\n%s", err, debug.Stack())
		return
	}

	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// requestScheme determines the effective scheme of the request, honoring
// X-Forwarded-Proto from a proxy or load balancer.
func requestScheme(r *http.Request) string {
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

// requestHost determines the effective host of the request (including any
// non-standard port), honoring X-Forwarded-Host.
func requestHost(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		return forwarded
	}
	return r.Host
}

// requestOrigin is the scheme+host of the current request. Final redirects
// are always built on this rather than a configured base URL, which
// protects against stale or incorrect base configuration.
func requestOrigin(r *http.Request) string {
	return requestScheme(r) + "://" + requestHost(r)
}

// callbackURL is the redirect_uri sent to Auth0: the configured callback
// when set, otherwise derived from the current request so it matches what
// Auth0 will actually redirect back to.
func callbackURL(settings config.Settings, r *http.Request) string {
	if cb := strings.TrimSpace(settings.CallbackURL); cb != "" {
		return cb
	}
	return requestOrigin(r) + CallbackPath
}

// clientIP extracts the client address, without port. RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
