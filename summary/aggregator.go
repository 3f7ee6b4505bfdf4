// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultRecentDays = 7
	defaultMaxRetries = 5
)

// Config drives the Aggregator.
type Config struct {
	// RecentDays is the length of the recent window.
	// (Optional) Defaults to 7.
	RecentDays int

	// MaxRetries bounds the reload-and-retry loop after a version conflict.
	// (Optional) Defaults to 5.
	MaxRetries int
}

// AggregatorOptions carries the collaborators of an Aggregator.
type AggregatorOptions struct {
	Store    S
	Replayer Replayer
	Mirror   Mirror

	// Cameras is the number of registered cameras.
	Cameras int

	Measures  *Measures
	GetLogger func(context.Context) *zap.Logger
}

// Aggregator folds capture records into the summary document. All mutations
// run in a single critical section, and each commit is a conditional save so
// that writers in other processes cannot be overwritten.
type Aggregator struct {
	store      S
	replayer   Replayer
	mirror     Mirror
	cameras    int
	window     int
	maxRetries int
	measures   *Measures
	getLogger  func(context.Context) *zap.Logger
	now        func() time.Time

	lock sync.Mutex

	snapLock sync.RWMutex
	snapshot model.GlobalSummary
}

func NewAggregator(config Config, opts AggregatorOptions) (*Aggregator, error) {
	if opts.Store == nil {
		return nil, ErrNilStore
	}
	if opts.Measures == nil {
		return nil, ErrNilMeasures
	}
	if config.RecentDays <= 0 {
		config.RecentDays = defaultRecentDays
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if opts.GetLogger == nil {
		opts.GetLogger = sallust.Get
	}
	return &Aggregator{
		store:      opts.Store,
		replayer:   opts.Replayer,
		mirror:     opts.Mirror,
		cameras:    opts.Cameras,
		window:     config.RecentDays,
		maxRetries: config.MaxRetries,
		measures:   opts.Measures,
		getLogger:  opts.GetLogger,
		now:        time.Now,
		snapshot:   model.GlobalSummary{Days: []model.DayLedger{}, Recent: []model.DaySummary{}},
	}, nil
}

// Apply folds record into the stored summary and commits it. Applying a
// record that is already folded in is a no-op. A corrupt stored document is
// rebuilt from the archive first. On error nothing is committed and the
// previous snapshot is returned.
func (a *Aggregator) Apply(ctx context.Context, record model.CaptureRecord) (model.GlobalSummary, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	logger := a.getLogger(ctx).With(zap.String("cycle", record.Key()))
	duplicate := false
	doc, err := a.update(ctx, func(current model.GlobalSummary, corrupt bool) (model.GlobalSummary, bool, error) {
		base := current
		if corrupt {
			rebuilt, err := a.replay(ctx)
			if err != nil {
				return current, false, err
			}
			base = rebuilt
		}

		next, changed, err := Fold(base, record, a.window, a.cameras, a.now())
		if err != nil {
			return current, false, err
		}
		duplicate = !changed
		return next, changed || corrupt, nil
	})

	switch {
	case errors.Is(err, ErrInvalidRecord):
		a.measures.Aggregations.With(prometheus.Labels{OutcomeLabel: RejectedOutcome}).Inc()
		logger.Error("capture record rejected", zap.Error(err))
	case err != nil:
		a.measures.Aggregations.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
		logger.Error("failed to aggregate capture record", zap.Error(err))
	case duplicate:
		a.measures.Aggregations.With(prometheus.Labels{OutcomeLabel: DuplicateOutcome}).Inc()
		logger.Info("capture record already aggregated")
	default:
		a.measures.Aggregations.With(prometheus.Labels{OutcomeLabel: AppliedOutcome}).Inc()
		logger.Debug("capture record aggregated", zap.Int64("version", doc.Version), zap.Int("totalCaptures", doc.TotalCaptures))
	}
	return doc, err
}

// Rebuild replaces the summary with a full replay of the archive.
func (a *Aggregator) Rebuild(ctx context.Context) (model.GlobalSummary, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.update(ctx, func(current model.GlobalSummary, _ bool) (model.GlobalSummary, bool, error) {
		next, err := a.replay(ctx)
		return next, err == nil, err
	})
}

// Refresh loads the stored summary into the snapshot, rebuilding it when it
// is corrupt.
func (a *Aggregator) Refresh(ctx context.Context) (model.GlobalSummary, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.update(ctx, func(current model.GlobalSummary, corrupt bool) (model.GlobalSummary, bool, error) {
		if !corrupt {
			return current, false, nil
		}
		next, err := a.replay(ctx)
		return next, err == nil, err
	})
}

// Snapshot returns a copy of the last committed document.
func (a *Aggregator) Snapshot() model.GlobalSummary {
	a.snapLock.RLock()
	defer a.snapLock.RUnlock()
	return a.snapshot.Clone()
}

// update runs one load, mutate, conditional save loop. mutate reports whether
// the document changed; unchanged documents are not saved.
func (a *Aggregator) update(ctx context.Context, mutate func(current model.GlobalSummary, corrupt bool) (model.GlobalSummary, bool, error)) (model.GlobalSummary, error) {
	logger := a.getLogger(ctx)

	var conflicts error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		current, corrupt, err := a.load(ctx)
		if err != nil {
			return a.Snapshot(), err
		}

		next, changed, err := mutate(current, corrupt)
		if err != nil {
			return a.Snapshot(), err
		}
		if !changed {
			a.setSnapshot(current)
			return current.Clone(), nil
		}

		next.Version = current.Version + 1
		err = a.store.Save(ctx, next)
		if err == nil {
			a.commit(ctx, next)
			return next.Clone(), nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return a.Snapshot(), err
		}

		conflicts = multierr.Append(conflicts, err)
		a.measures.Conflicts.With(prometheus.Labels{}).Inc()
		logger.Warn("summary version conflict, retrying", zap.Int("attempt", attempt), zap.Int64("version", next.Version))
	}
	return a.Snapshot(), fmt.Errorf("%w: gave up after %d attempts: %v", ErrVersionConflict, a.maxRetries, conflicts)
}

// load reads the stored document. A missing document is an empty one.
func (a *Aggregator) load(ctx context.Context) (doc model.GlobalSummary, corrupt bool, err error) {
	doc, err = a.store.Load(ctx)
	switch {
	case err == nil:
		return doc, false, nil
	case errors.Is(err, ErrNotFound):
		return model.GlobalSummary{Days: []model.DayLedger{}}, false, nil
	case errors.Is(err, ErrCorrupt):
		a.getLogger(ctx).Warn("stored summary is corrupt, rebuilding from the archive",
			zap.Int64("version", doc.Version), zap.Error(err))
		return model.GlobalSummary{Version: doc.Version}, true, nil
	}
	return model.GlobalSummary{}, false, err
}

func (a *Aggregator) replay(ctx context.Context) (model.GlobalSummary, error) {
	if a.replayer == nil {
		a.measures.Rebuilds.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
		return model.GlobalSummary{}, ErrNoReplayer
	}

	records, err := a.replayer.Records(ctx)
	if err != nil {
		a.measures.Rebuilds.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
		return model.GlobalSummary{}, fmt.Errorf("failed reading archive: %w", err)
	}

	doc, invalid := Replay(records, a.window, a.cameras, a.now())
	logger := a.getLogger(ctx)
	for _, err := range multierr.Errors(invalid) {
		logger.Warn("skipping capture record during replay", zap.Error(err))
	}
	logger.Info("replayed archive",
		zap.Int("records", len(records)), zap.Int("skipped", len(multierr.Errors(invalid))),
		zap.Int("totalCaptures", doc.TotalCaptures))
	a.measures.Rebuilds.With(prometheus.Labels{OutcomeLabel: SuccessOutcome}).Inc()
	return doc, nil
}

func (a *Aggregator) commit(ctx context.Context, doc model.GlobalSummary) {
	a.setSnapshot(doc)
	if a.mirror != nil {
		if err := a.mirror.Export(ctx, doc); err != nil {
			a.getLogger(ctx).Warn("failed to export summary mirror", zap.Error(err))
		}
	}
}

func (a *Aggregator) setSnapshot(doc model.GlobalSummary) {
	doc = doc.Clone()
	if doc.Days == nil {
		doc.Days = []model.DayLedger{}
	}
	if doc.Recent == nil {
		doc.Recent = []model.DaySummary{}
	}

	a.snapLock.Lock()
	a.snapshot = doc
	a.snapLock.Unlock()

	a.measures.Totals.With(prometheus.Labels{TotalLabel: DaysTotal}).Set(float64(doc.TotalDaysMonitored))
	a.measures.Totals.With(prometheus.Labels{TotalLabel: CapturesTotal}).Set(float64(doc.TotalCaptures))
	a.measures.Totals.With(prometheus.Labels{TotalLabel: ImagesTotal}).Set(float64(doc.TotalImages))
}
