// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/albrightlabs/auth0bridge/pkg/config"
	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/flow"
	"github.com/albrightlabs/auth0bridge/pkg/identity"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
	"github.com/albrightlabs/auth0bridge/pkg/session"
	"github.com/albrightlabs/auth0bridge/pkg/storage/users"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auth0bridge server",
	Long: `Start the auth0bridge HTTP server. The server exposes the browser-facing
login, callback, logout, and webhook endpoints and reconciles authenticated
Auth0 identities against the local user store.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 30 * time.Second // Covers the upstream token and userinfo round-trips
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 35 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second

	eventQueueCapacity = 256
)

func init() {
	serveCmd.Flags().String("config", "", "Path to a config file (default: auth0bridge.yaml in . or /etc/auth0bridge)")
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("db", "auth0bridge.db", "Path to the SQLite user database (empty for in-memory store)")
	serveCmd.Flags().String("redis-addr", "", "Redis address for session storage (empty for in-process sessions)")
	serveCmd.Flags().String("redis-prefix", "auth0bridge:", "Key prefix for Redis session storage")
	serveCmd.Flags().Bool("secure-cookies", true, "Mark session cookies as Secure (disable for plain-HTTP development)")
	serveCmd.Flags().Bool("dev", false, "Enable developer error pages with stack traces")

	for _, name := range []string{"config", "address", "db", "redis-addr", "redis-prefix", "secure-cookies", "dev"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", name, err)
		}
	}

	viper.SetEnvPrefix("AUTH0BRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := loadConfigFile(); err != nil {
		return err
	}

	address := viper.GetString("address")
	logger.Infof("Starting auth0bridge server on %s", address)

	store, closeStore, err := buildUserStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionStorage, err := buildSessionStorage(ctx)
	if err != nil {
		return err
	}

	sessions := session.NewManager(sessionStorage,
		session.WithSecureCookies(viper.GetBool("secure-cookies")),
	)

	bus := events.NewBus(eventQueueCapacity)
	defer bus.Close()
	subscribeEventLogging(bus)

	engine := identity.NewEngine(store, bus)

	controller := flow.NewController(
		config.NewViperProvider(),
		sessions,
		engine,
		bus,
		flow.WithDevMode(viper.GetBool("dev")),
	)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(serverRequestTimeout),
	)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	controller.Routes(router)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}

// loadConfigFile reads the config file into viper. An explicit --config path
// must exist; without one, a missing auth0bridge.yaml in the search paths is
// fine and settings come from flags and environment variables alone.
func loadConfigFile() error {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		logger.Infof("Loaded configuration from %s", viper.ConfigFileUsed())
		return nil
	}

	viper.SetConfigName("auth0bridge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/auth0bridge")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	logger.Infof("Loaded configuration from %s", viper.ConfigFileUsed())
	return nil
}

// buildUserStore opens the SQLite store, or an in-memory store when no path
// is configured.
func buildUserStore(ctx context.Context) (identity.Store, func(), error) {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		logger.Info("Using in-memory user store")
		return users.NewMemoryStore(), func() {}, nil
	}

	sqliteStore, err := users.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open user database: %w", err)
	}
	logger.Infof("Using SQLite user store at %s", dbPath)
	return sqliteStore, func() {
		if err := sqliteStore.Close(); err != nil {
			logger.Errorf("Failed to close user database: %v", err)
		}
	}, nil
}

// buildSessionStorage returns Redis-backed storage when an address is
// configured, in-process storage otherwise.
func buildSessionStorage(ctx context.Context) (session.Storage, error) {
	redisAddr := viper.GetString("redis-addr")
	if redisAddr == "" {
		logger.Info("Using in-process session storage")
		return session.NewLocalStorage(), nil
	}

	storage, err := session.NewRedisStorage(ctx, session.RedisConfig{
		Addr:      redisAddr,
		KeyPrefix: viper.GetString("redis-prefix"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Infof("Using Redis session storage at %s", redisAddr)
	return storage, nil
}

// subscribeEventLogging logs each published event at debug level so the
// stream is visible without an external consumer.
func subscribeEventLogging(bus *events.Bus) {
	for _, name := range []string{
		events.UserCreated,
		events.UserUpdated,
		events.UserAuthenticated,
		events.Login,
		events.WebhookReceived,
	} {
		bus.Subscribe(name, func(evt events.Event) {
			logger.Debugw("event", "name", evt.Name, "payload", evt.Payload)
		})
	}
}
