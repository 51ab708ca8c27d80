// Package main is the entry point for the statehub server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/statehub/internal/auth"
	"github.com/vyrodovalexey/statehub/internal/config"
	"github.com/vyrodovalexey/statehub/internal/server"
	"github.com/vyrodovalexey/statehub/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "statehub:", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains within the configured
// shutdown timeout.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Mutation diagnostics without an explicit logger go to zap.L().
	defer zap.ReplaceGlobals(logger)()

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	logger.Info("statehub starting",
		zap.String("address", cfg.Address()),
		zap.String("auth_mode", cfg.AuthMode),
		zap.String("id_field", cfg.IDField),
		zap.Int("max_states", cfg.MaxStates),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
	)

	srv := server.New(cfg, logger, store.NewMemoryStore(cfg.MaxStates), authenticator)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("statehub stopped")
	return nil
}

// newLogger builds the production JSON logger. Unknown levels fall back to
// info.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.CallerKey = "caller_site"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

var errNoMultiAuthMethods = errors.New("multi auth mode needs basic auth users or API keys")

// newAuthenticator builds the authenticator for cfg.AuthMode. It returns nil
// when authentication is off. In multi mode every configured method is tried
// in turn.
func newAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	mode := cfg.AuthMode
	if mode == "" || mode == "none" {
		return nil, nil
	}

	multi := mode == "multi"
	useBasic := mode == "basic" || (multi && cfg.BasicAuthUsers != "")
	useKeys := mode == "apikey" || (multi && cfg.APIKeys != "")

	switch {
	case multi && !useBasic && !useKeys:
		return nil, errNoMultiAuthMethods
	case !useBasic && !useKeys:
		return nil, fmt.Errorf("unknown auth mode %q", mode)
	}

	var methods []auth.Authenticator
	if useBasic {
		basic, err := auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
		if err != nil {
			return nil, fmt.Errorf("basic auth: %w", err)
		}
		methods = append(methods, basic)
	}
	if useKeys {
		keys, err := auth.NewAPIKeyAuthenticator(cfg.APIKeys)
		if err != nil {
			return nil, fmt.Errorf("API key auth: %w", err)
		}
		methods = append(methods, keys)
	}

	if multi {
		return auth.NewMultiAuthenticator(methods...), nil
	}
	return methods[0], nil
}
