package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sglre6355/portfolio/internal/site"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and, when DISCORD_TOKEN is set, the Discord bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	slog.Info("starting portfolio", "version", version)

	s := site.NewSite(cfg)
	if err := s.LoadModules(); err != nil {
		return err
	}

	errs, err := s.Start()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("received termination signal, shutting down")
	case err := <-errs:
		if err != nil {
			slog.Error("failed to serve HTTP", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		slog.Error("failed to shutdown", "error", err)
		return err
	}

	slog.Info("completed site shutdown")
	return nil
}

// setup loads .env and the site configuration, then installs the default logger.
func setup() (*site.Config, error) {
	if err := site.LoadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := site.LoadConfig()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(site.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	return cfg, nil
}
