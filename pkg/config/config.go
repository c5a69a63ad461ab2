// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package config supplies the Auth0 tenant settings consumed by the login
// bridge. Settings are an explicit value passed through every operation
// rather than an ambient singleton, and they are re-read from the provider
// at the start of each flow step because operators may change them between
// requests.
package config

import "github.com/spf13/viper"

// Settings holds the Auth0 tenant configuration and the reconciliation
// feature flags.
type Settings struct {
	// Domain is the Auth0 tenant domain, with or without a scheme
	// (e.g. "tenant.us.auth0.com" or "https://tenant.us.auth0.com").
	Domain string

	// ClientID is the OAuth client ID issued by Auth0.
	ClientID string

	// ClientSecret is the OAuth client secret issued by Auth0.
	ClientSecret string

	// CallbackURL overrides the callback URL sent to Auth0. When empty the
	// callback is derived from the incoming request.
	CallbackURL string

	// LogoutURL is the returnTo target after an Auth0 logout. When empty the
	// current request origin is used.
	LogoutURL string

	// AutoCreateUsers enables provisioning of local accounts for identities
	// that have never been seen before.
	AutoCreateUsers bool

	// SyncUserData enables best-effort profile sync (name, avatar) on every
	// successful callback.
	SyncUserData bool

	// DefaultUserGroupID assigns newly created users to this group, when the
	// group exists. Zero means no default group.
	DefaultUserGroupID int64

	// StatelessMode skips the session-bound CSRF state verification on the
	// callback. This is a documented weaker mode: with it enabled the code
	// exchange is the only CSRF mitigation. Leave it off unless the session
	// cookie cannot survive the provider round trip.
	StatelessMode bool
}

// IsConfigured reports whether the minimum settings required to talk to
// Auth0 are present.
func (s Settings) IsConfigured() bool {
	return s.Domain != "" && s.ClientID != "" && s.ClientSecret != ""
}

// Provider supplies a settings snapshot. Implementations must be safe for
// concurrent use; each flow step loads a fresh snapshot.
type Provider interface {
	Load() (Settings, error)
}

// ViperProvider reads settings from viper under the "auth0" key, which picks
// up the config file and AUTH0BRIDGE_* environment variables bound by the
// command layer.
type ViperProvider struct{}

// NewViperProvider creates a viper-backed settings provider.
func NewViperProvider() *ViperProvider {
	return &ViperProvider{}
}

// Load reads the current viper state into a Settings value. Each key is read
// individually: viper resolves per-key lookups through every source
// (explicit sets, the config file, and automatic-env bindings), whereas a
// nested unmarshal of "auth0" would miss values that exist only in the
// environment.
func (*ViperProvider) Load() (Settings, error) {
	return Settings{
		Domain:             viper.GetString("auth0.domain"),
		ClientID:           viper.GetString("auth0.client_id"),
		ClientSecret:       viper.GetString("auth0.client_secret"),
		CallbackURL:        viper.GetString("auth0.callback_url"),
		LogoutURL:          viper.GetString("auth0.logout_url"),
		AutoCreateUsers:    viper.GetBool("auth0.auto_create_users"),
		SyncUserData:       viper.GetBool("auth0.sync_user_data"),
		DefaultUserGroupID: viper.GetInt64("auth0.default_user_group"),
		StatelessMode:      viper.GetBool("auth0.stateless_mode"),
	}, nil
}

// StaticProvider returns a fixed settings value. Intended for tests.
type StaticProvider struct {
	Settings Settings
}

// Load returns the fixed settings.
func (p *StaticProvider) Load() (Settings, error) {
	return p.Settings, nil
}
