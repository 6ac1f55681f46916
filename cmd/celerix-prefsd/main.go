package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-prefs/internal/api"
	"github.com/celerix-dev/celerix-prefs/internal/app"
	"github.com/celerix-dev/celerix-prefs/internal/config"
	"github.com/celerix-dev/celerix-prefs/internal/keys"
	"github.com/celerix-dev/celerix-prefs/internal/server"
	"github.com/celerix-dev/celerix-prefs/internal/telemetry"
	"github.com/celerix-dev/celerix-prefs/internal/vault"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.Default()
	logger.Info("config loaded",
		"data_dir", cfg.DataDir,
		"backend", cfg.Backend,
		"port", cfg.Port,
		"http_port", cfg.HTTPPort,
		"keychain", cfg.KeychainKind,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Tracing (no-op without an endpoint)
	shutdownTracing, err := telemetry.Setup(ctx, "celerix-prefsd", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("error flushing traces", "error", err)
		}
	}()

	// 3. Open the preference backend and keychain. The daemon always serves its own store.
	wire, err := app.NewWire(cfg, false, logger)
	if err != nil {
		return err
	}
	defer func() {
		logger.Info("finalizing disk writes")
		if err := wire.Close(); err != nil {
			logger.Error("error closing stores", "error", err)
		}
	}()

	// 4. TCP router
	router := server.NewRouter(wire.Store)
	router.SetLogger(logger)
	router.SetMaxConnections(cfg.MaxConns)
	if cfg.DisableTLS {
		logger.Info("TLS disabled", "env", "CELERIX_PREFS_DISABLE_TLS")
	} else {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			return err
		}
		router.SetCertificate(cert)
		logger.Info("TLS enabled with a self-signed certificate")
	}

	// 5. HTTP API
	token := apiToken(ctx, cfg, wire, logger)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.Tracing())
	h := &api.Handler{Store: wire.Store}
	h.Register(r.Group("/api", api.RequireToken(token)))

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP API listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("TCP engine listening", "port", cfg.Port)
		if err := router.Listen(cfg.Port); err != nil {
			errCh <- err
		}
	}()

	// 6. Wait for a signal or a listener failure, then shut down
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err = <-errCh:
		logger.Error("listener failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stopErr := router.Stop(); stopErr != nil {
		logger.Error("error stopping TCP router", "error", stopErr)
	}
	if shutErr := httpServer.Shutdown(shutdownCtx); shutErr != nil {
		logger.Error("error stopping HTTP server", "error", shutErr)
	}
	return err
}

// apiToken returns the configured API token, or the one kept in the keychain.
func apiToken(ctx context.Context, cfg *config.Config, wire *app.Wire, logger *slog.Logger) string {
	if cfg.APIToken != "" {
		return cfg.APIToken
	}

	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	token, ok, err := wire.Secrets.Lookup(lookupCtx, keys.Secrets.APIToken)
	switch {
	case err != nil:
		logger.Warn("keychain did not answer, HTTP API is unauthenticated", "error", err)
	case !ok:
		logger.Warn("no API token configured, HTTP API is unauthenticated")
	}
	return token
}
