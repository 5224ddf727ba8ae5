// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keygate/keygate/internal/account"
	acctpg "github.com/keygate/keygate/internal/account/postgres"
	"github.com/keygate/keygate/internal/credential"
	"github.com/keygate/keygate/internal/httpapi"
	"github.com/keygate/keygate/internal/logging"
	"github.com/keygate/keygate/internal/mail"
	"github.com/keygate/keygate/internal/observability"
	"github.com/keygate/keygate/internal/store"
)

// Default values for serve command flags.
const (
	defaultListenAddr  = ":5100"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
	defaultSMTPPort    = 465

	readinessPingTimeout = 2 * time.Second
	stopTimeout          = 10 * time.Second
)

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account lifecycle HTTP server",
		Long: `Start the HTTP server exposing registration, email verification,
login, and password reset, plus a metrics/health endpoint.

Secrets are read from the environment: DATABASE_URL, KEYGATE_JWT_SECRET,
and KEYGATE_SMTP_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	// Register flags
	cmd.Flags().String("listen-addr", defaultListenAddr, "HTTP listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().String("frontend-base-url", "", "base URL for links embedded in emails")
	cmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (empty = allow all)")
	cmd.Flags().String("smtp-host", "", "SMTP relay host")
	cmd.Flags().Int("smtp-port", defaultSMTPPort, "SMTP relay port")
	cmd.Flags().String("smtp-username", "", "SMTP username (empty = no auth)")
	cmd.Flags().String("smtp-from", "", "From address for outgoing email")

	return cmd
}

// runServe wires the service together and blocks until shutdown.
func runServe(ctx context.Context, cfg *serveConfig) error {
	logging.SetDefault("keygate", version, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting keygate",
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	repo := acctpg.NewAccountRepository(pool)
	hasher := account.NewArgon2idHasher()

	signer, err := credential.NewSigner([]byte(cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to create credential signer: %w", err)
	}

	smtpNotifier, err := mail.NewSMTPNotifier(mail.Config{
		Host:            cfg.SMTPHost,
		Port:            cfg.SMTPPort,
		Username:        cfg.SMTPUsername,
		Password:        cfg.SMTPPassword,
		From:            cfg.SMTPFrom,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create mail notifier: %w", err)
	}
	notifier := mail.NewAsyncNotifier(smtpNotifier)

	svc, err := account.NewService(repo, hasher, signer, notifier)
	if err != nil {
		return fmt.Errorf("failed to create account service: %w", err)
	}

	// Start observability server if configured
	var (
		obsServer *observability.Server
		metrics   *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), readinessPingTimeout)
			defer cancel()
			return pool.Ping(pingCtx) == nil
		})
		if _, err := obsServer.Start(); err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	apiServer := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.CORSOrigins,
	}, svc, signer, metrics, logger)

	if err := apiServer.Start(); err != nil {
		stopObservability(obsServer, logger)
		return fmt.Errorf("failed to start http server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-apiServer.Err():
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", "error", err)
	}

	// Let in-flight emails finish before the process exits.
	notifier.Wait()

	stopObservability(obsServer, logger)

	logger.Info("keygate stopped")
	return nil
}

func stopObservability(obsServer *observability.Server, logger *slog.Logger) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		logger.Warn("observability server shutdown failed", "error", err)
	}
}
