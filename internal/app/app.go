// Package app wires configuration into the fetcher, resolver and sync
// runner shared by the CLI and the daemon.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/cache"
	"github.com/dgnsrekt/osm-live-updates/internal/config"
	"github.com/dgnsrekt/osm-live-updates/internal/history"
	"github.com/dgnsrekt/osm-live-updates/internal/osm"
	"github.com/dgnsrekt/osm-live-updates/internal/replication"
	"github.com/dgnsrekt/osm-live-updates/internal/sparql"
	"github.com/dgnsrekt/osm-live-updates/internal/transport"
)

type App struct {
	Config   *config.Config
	Fetcher  *osm.Fetcher
	Resolver *osm.Resolver
	logger   *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := transport.Options{
		Timeout:          time.Duration(cfg.HTTP.TimeoutSec) * time.Second,
		RatePerSecond:    cfg.HTTP.RatePerSecond,
		BatchConcurrency: cfg.HTTP.BatchConcurrency,
		UserAgent:        cfg.HTTP.UserAgent,
	}
	httpClient := transport.NewClient(opts, logger.Named("http"))

	sparqlOpts := opts
	sparqlOpts.Accept = sparql.AcceptResultsXML
	sparqlClient := sparql.NewClient(cfg.SPARQL.EndpointURL, transport.NewClient(sparqlOpts, logger.Named("sparql-http")), logger.Named("sparql"))

	store := cache.NewStore(cfg.Cache.Directory)
	fetcher := osm.NewFetcher(osm.FetcherConfig{
		DatabaseURL: cfg.OSM.DatabaseURL,
		NodeURL:     cfg.OSM.NodeURL,
	}, httpClient, store, sparqlClient, logger.Named("fetcher"))

	return &App{
		Config:   cfg,
		Fetcher:  fetcher,
		Resolver: osm.NewResolver(sparqlClient, logger.Named("resolver")),
		logger:   logger,
	}
}

// OpenHistory opens the sync history database named in the config.
func (a *App) OpenHistory() (*history.Store, error) {
	store, err := history.Open(a.Config.Sync.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening sync history: %w", err)
	}
	a.logger.Debug("opened sync history", zap.String("path", store.Path()))
	return store, nil
}

// NewRunner builds a sync runner that applies diffs with the given applier.
// A nil applier logs a change summary per diff.
func (a *App) NewRunner(hist replication.History, applier replication.Applier) *replication.Runner {
	if applier == nil {
		applier = replication.NewLogApplier(a.logger.Named("applier"))
	}
	return replication.NewRunner(a.Fetcher, hist, applier, a.Config.Sync.MaxDiffs, a.logger.Named("sync"))
}
