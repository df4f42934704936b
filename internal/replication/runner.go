package replication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/osm-live-updates/internal/history"
	"github.com/dgnsrekt/osm-live-updates/internal/osm"
)

var ErrNoStartingPoint = errors.New("no sync history and no starting sequence number given")

// Source is the part of the fetcher a run needs.
type Source interface {
	FetchCurrentState(ctx context.Context) (osm.SyncState, error)
	FetchStateForSequence(ctx context.Context, sequenceNumber int) (osm.SyncState, error)
	LoadDiff(ctx context.Context, sequenceNumber int) (*osm.DiffHandle, error)
}

// History tracks the last applied sequence number.
type History interface {
	Latest(ctx context.Context) (*history.Entry, error)
	Record(ctx context.Context, e history.Entry) error
}

type Runner struct {
	source   Source
	history  History
	applier  Applier
	maxDiffs int
	logger   *zap.Logger
}

type RunResult struct {
	RunID    string
	From     int
	To       int
	Applied  int
	Upstream osm.SyncState
	Duration time.Duration
}

// UpToDate reports whether the run found nothing to apply.
func (r *RunResult) UpToDate() bool {
	return r.From > r.To
}

func NewRunner(source Source, hist History, applier Applier, maxDiffs int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:   source,
		history:  hist,
		applier:  applier,
		maxDiffs: maxDiffs,
		logger:   logger,
	}
}

// Run applies diffs from the start position up to the upstream head, at
// most maxDiffs per run. A negative from continues after the last recorded
// sequence number. The first failure stops the run; the returned result
// then describes the diffs applied before it.
func (r *Runner) Run(ctx context.Context, from int) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("runID", result.RunID))

	upstream, err := r.source.FetchCurrentState(ctx)
	if err != nil {
		return result, fmt.Errorf("reading upstream state: %w", err)
	}
	result.Upstream = upstream

	first, err := r.startSequence(ctx, from)
	if err != nil {
		return result, err
	}

	last := upstream.SequenceNumber
	if r.maxDiffs > 0 && last-first+1 > r.maxDiffs {
		last = first + r.maxDiffs - 1
	}
	result.From = first
	result.To = last

	if result.UpToDate() {
		logger.Info("already up to date",
			zap.Int("upstream", upstream.SequenceNumber),
			zap.String("timestamp", upstream.Timestamp),
		)
		result.Duration = time.Since(start)
		return result, nil
	}

	logger.Info("starting sync",
		zap.Int("from", first),
		zap.Int("to", last),
		zap.Int("upstream", upstream.SequenceNumber),
	)

	for seq := first; seq <= last; seq++ {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		if err := r.applyOne(ctx, result.RunID, seq); err != nil {
			logger.Error("sync stopped", zap.Int("sequenceNumber", seq), zap.Error(err))
			result.Duration = time.Since(start)
			return result, err
		}
		result.Applied++
	}

	result.Duration = time.Since(start)
	logger.Info("sync complete",
		zap.Int("applied", result.Applied),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (r *Runner) applyOne(ctx context.Context, runID string, seq int) error {
	state, err := r.source.FetchStateForSequence(ctx, seq)
	if err != nil {
		return err
	}

	diff, err := r.source.LoadDiff(ctx, seq)
	if err != nil {
		return err
	}

	if err := r.applier.Apply(ctx, diff); err != nil {
		return fmt.Errorf("applying diff %d: %w", seq, err)
	}

	return r.history.Record(ctx, history.Entry{
		SequenceNumber: seq,
		Timestamp:      state.Timestamp,
		DiffPath:       diff.Path,
		RunID:          runID,
	})
}

func (r *Runner) startSequence(ctx context.Context, from int) (int, error) {
	if from >= 0 {
		return from, nil
	}

	latest, err := r.history.Latest(ctx)
	if errors.Is(err, history.ErrNoHistory) {
		return 0, ErrNoStartingPoint
	}
	if err != nil {
		return 0, err
	}
	return latest.SequenceNumber + 1, nil
}
