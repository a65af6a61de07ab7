package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alloy-predictor/internal/app"
	"alloy-predictor/internal/common/config"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/observability"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the models and start the HTTP server",
		Long: `Load the three model artifacts and serve predictions until
SIGINT or SIGTERM. Any model that fails to load aborts startup.`,
		Example: `  # Development profile on 127.0.0.1:5000
  alloy-predictor serve

  # Production profile with a custom frontend origin
  FRONTEND_URL=https://alloys.example.com alloy-predictor serve --profile production`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *globalFlags) error {
	cfg, sources, err := config.Load(flags.loadOptions())
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := newZapLogger(cfg.Logging)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting alloy predictor", map[string]interface{}{
		"version":     cfg.App.Version,
		"profile":     cfg.App.Profile,
		"envFile":     sources.EnvFile,
		"configFiles": sources.ConfigFiles,
	})

	tracing, err := observability.NewTracing(cfg.Tracing, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return err
	}
	obs := observability.New(observability.Options{
		ServiceName: cfg.App.Name,
		Tracing:     tracing,
		Logger:      log,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Observability shutdown failed", nil)
		}
	}()

	application, err := app.New(cfg, log, obs)
	if err != nil {
		log.WithError(err).Error("Model loading failed", nil)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		return err
	}
	log.Info("Alloy predictor stopped", nil)
	return nil
}

func newZapLogger(cfg config.LoggingConfig) *zap.Logger {
	return logger.Build(logger.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}
