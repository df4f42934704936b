package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/app"
	"github.com/dgnsrekt/osm-live-updates/internal/config"
	"github.com/dgnsrekt/osm-live-updates/internal/history"
	"github.com/dgnsrekt/osm-live-updates/internal/notify"
	"github.com/dgnsrekt/osm-live-updates/internal/replication"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Load daemon config
	daemonCfg := LoadDaemonConfig()

	logger.Info("daemon configuration loaded",
		zap.String("configPath", daemonCfg.ConfigPath),
		zap.Duration("interval", daemonCfg.Interval),
		zap.Int("startFrom", daemonCfg.StartFrom),
		zap.Bool("runOnStartup", daemonCfg.RunOnStartup),
	)

	cfg, err := config.Load(daemonCfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("sync configuration loaded",
		zap.String("databaseURL", cfg.OSM.DatabaseURL),
		zap.String("sparqlEndpoint", cfg.SPARQL.EndpointURL),
		zap.String("cacheDir", cfg.Cache.Directory),
		zap.Int("maxDiffs", cfg.Sync.MaxDiffs),
	)

	ntfyCfg := notify.LoadConfig()
	if err := ntfyCfg.Validate(); err != nil {
		logger.Error("invalid notification config", zap.Error(err))
		return 1
	}
	notifier := notify.New(ntfyCfg, logger)

	a := app.New(cfg, logger)
	hist, err := a.OpenHistory()
	if err != nil {
		logger.Error("failed to open sync history", zap.Error(err))
		return 1
	}
	defer func() { _ = hist.Close() }()

	if err := checkStartingPoint(context.Background(), hist, daemonCfg.StartFrom); err != nil {
		logger.Error("cannot start syncing", zap.Error(err))
		return 1
	}

	d := &daemon{
		runner:    a.NewRunner(hist, nil),
		notifier:  notifier,
		startFrom: daemonCfg.StartFrom,
		logger:    logger,
	}

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("daemon started", zap.Duration("interval", daemonCfg.Interval))

	if daemonCfg.RunOnStartup {
		d.runOnce(ctx)
	}

	ticker := time.NewTicker(daemonCfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runOnce(ctx)

		case <-ctx.Done():
			logger.Info("received shutdown signal, stopping")
			return 0
		}
	}
}

// SyncRunner runs one sync pass.
type SyncRunner interface {
	Run(ctx context.Context, from int) (*replication.RunResult, error)
}

type daemon struct {
	runner    SyncRunner
	notifier  notify.Notifier
	startFrom int
	logger    *zap.Logger
}

// runOnce performs a single sync pass and reports it. The configured start
// sequence is only used until the history has an entry.
func (d *daemon) runOnce(ctx context.Context) {
	result, err := d.runner.Run(ctx, -1)
	if errors.Is(err, replication.ErrNoStartingPoint) && d.startFrom >= 0 {
		d.logger.Info("no sync history, starting from configured sequence", zap.Int("from", d.startFrom))
		result, err = d.runner.Run(ctx, d.startFrom)
	}

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		d.logger.Error("sync failed", zap.Error(err))
	} else if result.UpToDate() {
		d.logger.Debug("nothing to apply", zap.Int("upstream", result.Upstream.SequenceNumber))
	}

	if nerr := notify.Report(ctx, d.notifier, result, err); nerr != nil {
		d.logger.Warn("failed to send notification", zap.Error(nerr))
	}
}

// LatestReader reads the last applied history entry.
type LatestReader interface {
	Latest(ctx context.Context) (*history.Entry, error)
}

// checkStartingPoint fails when there is no history to continue from and
// no configured first sequence number.
func checkStartingPoint(ctx context.Context, hist LatestReader, startFrom int) error {
	if startFrom >= 0 {
		return nil
	}
	_, err := hist.Latest(ctx)
	if errors.Is(err, history.ErrNoHistory) {
		return fmt.Errorf("%w: set DAEMON_START_FROM for the first run", replication.ErrNoStartingPoint)
	}
	return err
}
