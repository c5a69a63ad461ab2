// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package clientcredentials

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
)

func newTokenServer(t *testing.T, hits *atomic.Int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNewExchangerRequiresConfiguration(t *testing.T) {
	t.Parallel()

	_, err := NewExchanger("", "cid", "secret", "aud")
	require.ErrorIs(t, err, auth0.ErrNotConfigured)

	_, err = NewExchanger("t.auth0.com", "cid", "", "aud")
	require.ErrorIs(t, err, auth0.ErrNotConfigured)
}

func TestTokenCachesUntilInvalidated(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))
		assert.Equal(t, "https://api.example.com", r.PostFormValue("audience"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"m2m-1","token_type":"Bearer","expires_in":86400}`)
	})

	exchanger, err := NewExchanger(server.URL, "cid", "secret", "https://api.example.com",
		WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	ctx := context.Background()

	token, err := exchanger.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m2m-1", token)

	// Second call is served from cache.
	token, err = exchanger.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "m2m-1", token)
	assert.Equal(t, int32(1), hits.Load())

	// Invalidation forces a fresh exchange.
	require.NoError(t, exchanger.Invalidate(ctx))
	_, err = exchanger.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestTokenRejectionMapsToClientError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTokenServer(t, &hits, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"access_denied"}`)
	})

	exchanger, err := NewExchanger(server.URL, "cid", "wrong-secret", "",
		WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	_, err = exchanger.Token(context.Background())
	var clientErr *auth0.UpstreamClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusUnauthorized, clientErr.StatusCode)
}

func TestMemoryCacheExpiry(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", "tok", time.Hour))
	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "tok", got)

	require.NoError(t, cache.Put(ctx, "gone", "tok2", -time.Second))
	_, ok = cache.Get(ctx, "gone")
	assert.False(t, ok)

	require.NoError(t, cache.Delete(ctx, "k"))
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client, "m2m:")

	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "k", "tok", time.Hour))
	require.True(t, mr.Exists("m2m:k"))

	got, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "tok", got)

	mr.FastForward(2 * time.Hour)
	_, ok = cache.Get(ctx, "k")
	assert.False(t, ok)
}
