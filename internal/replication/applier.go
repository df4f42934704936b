package replication

import (
	"context"

	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/osm"
)

// Applier writes a decompressed diff into the downstream store.
type Applier interface {
	Apply(ctx context.Context, diff *osm.DiffHandle) error
}

// LogApplier only reports what a diff contains. It stands in for a real
// store when running against the feed without a downstream target.
type LogApplier struct {
	logger *zap.Logger
}

func NewLogApplier(logger *zap.Logger) *LogApplier {
	return &LogApplier{logger: logger}
}

func (a *LogApplier) Apply(_ context.Context, diff *osm.DiffHandle) error {
	summary, err := Summarize(diff.Content)
	if err != nil {
		return err
	}

	a.logger.Info("diff contents",
		zap.Int("sequenceNumber", diff.SequenceNumber),
		zap.Int("creates", summary.Creates),
		zap.Int("modifies", summary.Modifies),
		zap.Int("deletes", summary.Deletes),
		zap.Int("nodes", summary.Nodes),
		zap.Int("ways", summary.Ways),
		zap.Int("relations", summary.Relations),
		zap.Int("elements", summary.Total()),
	)
	return nil
}
