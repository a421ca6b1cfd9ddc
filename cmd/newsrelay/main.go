package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsRelay/internal/app"
	"NewsRelay/internal/config"
	"NewsRelay/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "newsrelay",
	Short:         "newsrelay - harvest, translate and publish news to a Telegram channel",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cycle now and then on every scheduler interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			return a.Run(ctx)
		})
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run exactly one harvest-and-publish cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
			report, err := a.RunOnce(ctx)
			if err != nil {
				return err
			}
			logger.Info("cycle done", "cycle", report.CycleID, "sent", report.Sent, "failed", report.Failed)
			return nil
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Keep only today's rows in the article store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
			return a.Prune(ctx)
		})
	},
}

func withApp(ctx context.Context, fn func(context.Context, *app.Application, *slog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer closeQuietly(logFile)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close storage", "error", err)
		}
	}()

	if err := fn(ctx, application, logger); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults to $NEWSRELAY_CONFIG)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(pruneCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
