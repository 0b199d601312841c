package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/Sabbasth/rp-exporter/internal/config"
	"github.com/Sabbasth/rp-exporter/internal/console"
	"github.com/Sabbasth/rp-exporter/internal/diskusage"
	"github.com/Sabbasth/rp-exporter/internal/metrics"
	"github.com/Sabbasth/rp-exporter/internal/poller"
	"github.com/Sabbasth/rp-exporter/internal/server"
	"github.com/Sabbasth/rp-exporter/internal/version"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rp-exporter",
		Short: "Export Redpanda topic disk usage as Prometheus metrics",
		Long: `rp-exporter polls the Redpanda Console topic API and exposes the disk
usage of every topic, or every partition, as the gauge
redpanda_topic_disk_usage_bytes.

Every flag can also be set through an RP_EXPORTER_ environment variable
(for example RP_EXPORTER_CONSOLE_URL) or a YAML file passed with --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			switch {
			case inv.ShowVersion:
				fmt.Fprintln(cmd.OutOrStdout(), version.Info())
				return nil
			case inv.PrintConfig:
				out, err := inv.Settings.YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}

			return run(cmd.Context(), inv)
		},
	}
	cmd.Flags().AddFlagSet(config.NewFlagSet("rp-exporter"))
	return cmd
}

// run serves metrics and polls the console until ctx is cancelled.
func run(ctx context.Context, inv *config.Invocation) error {
	s := inv.Settings
	logger, err := newLogger(s.LogLevel, s.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := console.NewClient(s.ConsoleURL,
		console.WithTimeout(s.TimeoutDuration()),
		console.WithDetailRateLimit(s.DetailRateLimit),
		console.WithUserAgent(version.UserAgent()),
	)

	logger.Info("rp-exporter starting",
		zap.String("version", version.Short()),
		zap.String("console_url", client.BaseURL()),
		zap.String("strategy", string(s.Strategy)),
		zap.Int("interval_seconds", s.Interval),
	)
	if inv.ConfigFile != "" {
		logger.Info("loaded configuration file", zap.String("path", inv.ConfigFile))
	}
	if ce := logger.Check(zapcore.DebugLevel, "effective configuration"); ce != nil {
		if out, err := s.YAML(); err == nil {
			ce.Write(zap.ByteString("settings", out))
		}
	}

	state := metrics.NewGaugeState()
	inst := metrics.NewInstruments(state)
	registry := metrics.NewRegistry(state, inst)

	collector := diskusage.New(client, state, inst, diskusage.Config{
		Strategy:     s.Strategy,
		PruneMissing: s.PruneMissing,
	}, logger.Named("collector"))
	p := poller.New(collector, s.IntervalDuration(), logger.Named("poller"))
	srv := server.New(s.Addr(), s.MetricsPath, registry, p, logger.Named("server"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error { return p.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("rp-exporter stopped with error", zap.Error(err))
		return err
	}
	logger.Info("rp-exporter stopped")
	return nil
}

// newLogger builds a production JSON logger or a development console logger
// at the given level.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
