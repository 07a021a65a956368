// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/httpapi"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/mail"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/internal/store"
)

// newServeCmd creates the serve subcommand.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		Long: `Start the account API server together with its metrics and
health endpoints, and run until interrupted.`,
		RunE: runServe,
	}

	// Flag defaults mirror config defaults so unset flags don't
	// override file values through the flag layer.
	def := config.Default()
	flags := cmd.Flags()
	flags.String("http.addr", def.HTTP.Addr, "API listen address")
	flags.String("observability.addr", def.Observability.Addr, "metrics and health listen address")
	flags.String("log.level", def.Log.Level, "log level (debug, info, warn, error)")
	flags.String("log.format", def.Log.Format, "log format (json, text)")
	flags.Bool("auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup("accountd", version, cfg.Log.Format, cfg.LogLevel(), os.Stderr)
	slog.SetDefault(logger)

	ctx := cmd.Context()

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if autoMigrate, _ := cmd.Flags().GetBool("auto-migrate"); autoMigrate {
		migrator, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return err
		}
		if err := migrator.Close(); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	signer, err := account.NewTokenSigner([]byte(cfg.Auth.Secret),
		account.WithSessionTTL(cfg.Auth.SessionTTL),
		account.WithResetTTL(cfg.Auth.ResetTTL))
	if err != nil {
		return err
	}

	sender, err := mail.NewSMTPSender(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	repo := postgres.NewUserRepository(pool)
	service, err := account.NewService(repo, account.NewBcryptHasher(), signer, sender, cfg.PublicBaseURL, logger)
	if err != nil {
		return err
	}

	obs := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrCh, err := obs.Start()
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(service, signer, logger, obs.Metrics())
	api := httpapi.NewServer(httpapi.ServerConfig{
		Addr:         cfg.HTTP.Addr,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, handler.Routes(), logger)
	apiErrCh, err := api.Start()
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		_ = obs.Stop(stopCtx)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-apiErrCh:
		if err != nil {
			serveErr = oops.With("component", "api").Wrap(err)
		}
	case err := <-obsErrCh:
		if err != nil {
			serveErr = oops.With("component", "observability").Wrap(err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := api.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	if err := obs.Stop(stopCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}
