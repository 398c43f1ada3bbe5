package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pysugar/cloudidp/internal/api"
	"github.com/pysugar/cloudidp/internal/auth/azure"
	"github.com/pysugar/cloudidp/internal/auth/session"
	"github.com/pysugar/cloudidp/internal/config"
	"github.com/pysugar/cloudidp/internal/logging"
	"github.com/pysugar/cloudidp/internal/manager"
	"github.com/pysugar/cloudidp/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default: $CLOUDIDP_CONFIG or a well-known location)")
	flag.Parse()

	cfg, resolved, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err.Error())
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, logging.Format(cfg.Log.Format), logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)
	logger.Info("cloudidp starting",
		"version", version.Version,
		"commit", version.Commit,
		"build_time", version.BuildTime,
		"config", resolved,
		"backend", cfg.Backend,
		"db_type", cfg.Database.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := manager.New(cfg, manager.WithLogger(logger))
	defer mgr.Close()
	if err := mgr.Ready(ctx); err != nil {
		logger.Warn("starting with a degraded backend", "error", err.Error())
	}

	sessions := session.NewManager(mgr, cfg.Session.Timeout, session.WithLogger(logger))
	sessions.StartSweepLoop(ctx, 15*time.Minute)

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithAdminPassword(cfg.HTTP.AdminPassword),
		api.WithSecureCookies(cfg.HTTP.CookieSecure),
	}
	if cfg.Azure.Enabled() {
		signin := azure.New(azure.Config{
			ClientID:     cfg.Azure.ClientID,
			ClientSecret: cfg.Azure.ClientSecret,
			TenantID:     cfg.Azure.TenantID,
			RedirectURL:  strings.TrimRight(cfg.HTTP.BaseURL, "/") + azure.CallbackPath,
		}, mgr, sessions, azure.WithLogger(logger), azure.WithSecureCookies(cfg.HTTP.CookieSecure))
		opts = append(opts, api.WithSignIn(signin))
	} else {
		logger.Warn("Azure AD sign-in disabled: set AZURE_CLIENT_ID, AZURE_CLIENT_SECRET and AZURE_TENANT_ID")
	}
	if cfg.HTTP.AdminPassword == "" && !cfg.Azure.Enabled() {
		logger.Warn("no way to sign in: set CLOUDIDP_ADMIN_PASSWORD or configure Azure AD")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           api.New(mgr, sessions, opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr, "base_url", cfg.HTTP.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err.Error())
	}
	logger.Info("cloudidp stopped")
}
