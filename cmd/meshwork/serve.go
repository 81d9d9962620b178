// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meshwork/meshwork/internal/auth"
	authpg "github.com/meshwork/meshwork/internal/auth/postgres"
	"github.com/meshwork/meshwork/internal/config"
	"github.com/meshwork/meshwork/internal/httpapi"
	"github.com/meshwork/meshwork/internal/logging"
	"github.com/meshwork/meshwork/internal/observability"
	"github.com/meshwork/meshwork/internal/social"
	socialpg "github.com/meshwork/meshwork/internal/social/postgres"
	"github.com/meshwork/meshwork/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server and the observability server, connect to
PostgreSQL, and serve until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().String("http_addr", config.DefaultHTTPAddr, "API listen address")
	cmd.Flags().String("metrics_addr", config.DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log_format", config.DefaultLogFormat, "log format (json or text)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "run pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool) error {
	logging.SetDefault("meshwork", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if autoMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	hasher := auth.NewArgon2idHasher()
	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}

	accounts, err := auth.NewService(auth.ServiceConfig{
		Principals: authpg.NewPrincipalRepository(pool),
		Hasher:     hasher,
		Tokens:     tokens,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	resources := socialpg.NewResourceStore(pool)
	posts, comments, skills, experiences, err := httpapi.KindServices(resources, logger)
	if err != nil {
		return err
	}
	reactions, err := social.NewReactionService(resources, logger)
	if err != nil {
		return err
	}

	// Observability server first so readiness reflects the API listener.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	var apiReady atomic.Bool
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return apiReady.Load() })
		metrics = obsServer.Metrics()
		obsErrCh, obsErr := obsServer.Start()
		if obsErr != nil {
			return obsErr
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop observability server", "error", stopErr)
			}
		}()
	}

	handler, err := httpapi.New(httpapi.Config{
		Accounts:    accounts,
		Posts:       posts,
		Comments:    comments,
		Skills:      skills,
		Experiences: experiences,
		Reactions:   reactions,
		Verifier:    tokens,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			serveErrCh <- serveErr
		}
	}()
	apiReady.Store(true)
	logger.Info("api server started", "addr", cfg.HTTPAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serveErrCh:
		cancel()
		return oops.Code("SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context canceled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	logger.Info("api server stopped")
	return nil
}

// monitorServerErrors cancels the serve context when a background server
// reports a fatal error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("background server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
