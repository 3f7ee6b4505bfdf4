// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNilCollaborator = errors.New("orchestrator collaborators cannot be nil")
	ErrNilMeasures     = errors.New("measures cannot be nil")
)

// Outcome summarizes a cycle for its caller.
type Outcome string

const (
	AllSucceeded   Outcome = "all_succeeded"
	PartialSuccess Outcome = "partial_success"
	AllFailed      Outcome = "all_failed"

	// Aborted cycles leave the summary untouched. Their capture record is
	// discarded too, and Report.Record is only set when that failed.
	Aborted Outcome = "aborted"
)

// State is the stage of a cycle.
type State int32

const (
	Idle State = iota
	Fetching
	Writing
	Aggregating
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Writing:
		return "writing"
	case Aggregating:
		return "aggregating"
	}
	return "idle"
}

type Registry interface {
	List() []model.CameraSpec
}

type Fetcher interface {
	Fetch(ctx context.Context, camera model.CameraSpec) model.CaptureAttempt
}

type Writer interface {
	Write(ctx context.Context, cycleTime time.Time, attempts []model.CaptureAttempt) (model.CaptureRecord, error)
	Discard(ctx context.Context, record model.CaptureRecord) error
}

type Aggregator interface {
	Apply(ctx context.Context, record model.CaptureRecord) (model.GlobalSummary, error)
}

// Report is what a cycle tells its caller.
type Report struct {
	ID        string               `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
	Outcome   Outcome              `json:"outcome"`
	Failed    []int                `json:"failed"`
	Record    *model.CaptureRecord `json:"record,omitempty"`
	Summary   *model.GlobalSummary `json:"summary,omitempty"`
	Error     string               `json:"error,omitempty"`

	Err error `json:"-"`
}

type Config struct {
	// Parallelism bounds the concurrent fetches of a cycle.
	// (Optional) Defaults to the number of cameras.
	Parallelism int
}

type Options struct {
	Registry   Registry
	Fetcher    Fetcher
	Writer     Writer
	Aggregator Aggregator
	Measures   *Measures
	GetLogger  func(context.Context) *zap.Logger
}

// Orchestrator drives capture cycles. Cycles may overlap; each one moves
// through Idle, Fetching, Writing, Aggregating and back to Idle.
type Orchestrator struct {
	registry    Registry
	fetcher     Fetcher
	writer      Writer
	aggregator  Aggregator
	parallelism int
	measures    *Measures
	getLogger   func(context.Context) *zap.Logger
	now         func() time.Time

	state  int32
	active int32
}

func New(config Config, opts Options) (*Orchestrator, error) {
	if opts.Registry == nil || opts.Fetcher == nil || opts.Writer == nil || opts.Aggregator == nil {
		return nil, ErrNilCollaborator
	}
	if opts.Measures == nil {
		return nil, ErrNilMeasures
	}
	if opts.GetLogger == nil {
		opts.GetLogger = sallust.Get
	}
	return &Orchestrator{
		registry:    opts.Registry,
		fetcher:     opts.Fetcher,
		writer:      opts.Writer,
		aggregator:  opts.Aggregator,
		parallelism: config.Parallelism,
		measures:    opts.Measures,
		getLogger:   opts.GetLogger,
		now:         time.Now,
	}, nil
}

// State returns the stage most recently entered by any cycle, or Idle when
// no cycle is running.
func (o *Orchestrator) State() State {
	if atomic.LoadInt32(&o.active) == 0 {
		return Idle
	}
	return State(atomic.LoadInt32(&o.state))
}

// Run executes one cycle stamped at, or now when at is zero. It always
// returns; failures are reported, never raised.
func (o *Orchestrator) Run(ctx context.Context, at time.Time) Report {
	start := o.now()
	if at.IsZero() {
		at = start
	}
	stamp := model.StampOf(at)
	report := Report{
		ID:        uuid.NewString(),
		Timestamp: stamp.Time,
		Failed:    []int{},
	}

	logger := o.getLogger(ctx).With(zap.String("cycleID", report.ID), zap.String("cycle", stamp.Key()))
	ctx = sallust.With(ctx, logger)

	atomic.AddInt32(&o.active, 1)
	defer atomic.AddInt32(&o.active, -1)
	defer func() {
		o.measures.Cycles.With(prometheus.Labels{OutcomeLabel: string(report.Outcome)}).Inc()
		o.measures.Duration.With(prometheus.Labels{OutcomeLabel: string(report.Outcome)}).Observe(o.now().Sub(start).Seconds())
	}()

	cameras := o.registry.List()
	o.enter(Idle, Fetching)
	attempts := o.fetchAll(ctx, cameras)

	o.enter(Fetching, Writing)
	record, err := o.writer.Write(ctx, stamp.Time, attempts)
	if err != nil {
		o.leave(Writing)
		report.Failed = failedAttempts(attempts)
		o.abort(logger, &report, err)
		return report
	}

	o.enter(Writing, Aggregating)
	doc, err := o.aggregator.Apply(ctx, record)
	o.leave(Aggregating)
	report.Failed = missing(cameras, record)
	if err != nil {
		if discardErr := o.writer.Discard(ctx, record); discardErr != nil {
			logger.Error("failed discarding capture record", zap.Error(discardErr))
			report.Record = &record
		}
		o.abort(logger, &report, err)
		return report
	}
	report.Record = &record
	report.Summary = &doc

	switch {
	case len(report.Failed) == 0:
		report.Outcome = AllSucceeded
	case len(record.Images) == 0:
		report.Outcome = AllFailed
	default:
		report.Outcome = PartialSuccess
	}
	for _, id := range report.Failed {
		o.measures.FailedCameras.With(prometheus.Labels{CameraLabel: strconv.Itoa(id)}).Inc()
	}

	logger.Info("capture cycle complete",
		zap.String("outcome", string(report.Outcome)),
		zap.Int("images", len(record.Images)),
		zap.Ints("failed", report.Failed),
		zap.Int("totalCaptures", doc.TotalCaptures))
	return report
}

func (o *Orchestrator) abort(logger *zap.Logger, report *Report, err error) {
	report.Outcome = Aborted
	report.Err = err
	report.Error = err.Error()
	logger.Error("capture cycle aborted", zap.Ints("failed", report.Failed), zap.Error(err))
}

// fetchAll fetches every camera concurrently. Fetch never fails, so the group
// only bounds parallelism and waits.
func (o *Orchestrator) fetchAll(ctx context.Context, cameras []model.CameraSpec) []model.CaptureAttempt {
	attempts := make([]model.CaptureAttempt, len(cameras))
	var g errgroup.Group
	limit := o.parallelism
	if limit <= 0 {
		limit = len(cameras)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, camera := range cameras {
		i, camera := i, camera
		g.Go(func() error {
			attempts[i] = o.fetcher.Fetch(ctx, camera)
			return nil
		})
	}
	_ = g.Wait()
	return attempts
}

func (o *Orchestrator) enter(from, to State) {
	if from != Idle {
		o.measures.States.With(prometheus.Labels{StateLabel: from.String()}).Dec()
	}
	o.measures.States.With(prometheus.Labels{StateLabel: to.String()}).Inc()
	atomic.StoreInt32(&o.state, int32(to))
}

func (o *Orchestrator) leave(from State) {
	o.measures.States.With(prometheus.Labels{StateLabel: from.String()}).Dec()
	atomic.StoreInt32(&o.state, int32(Idle))
}

// missing lists registered cameras without an image in record, in registry
// order.
func missing(cameras []model.CameraSpec, record model.CaptureRecord) []int {
	present := make(map[int]struct{}, len(record.Images))
	for _, img := range record.Images {
		present[img.CameraID] = struct{}{}
	}
	failed := []int{}
	for _, c := range cameras {
		if _, ok := present[c.ID]; !ok {
			failed = append(failed, c.ID)
		}
	}
	return failed
}

func failedAttempts(attempts []model.CaptureAttempt) []int {
	failed := []int{}
	for _, a := range attempts {
		if !a.Succeeded() {
			failed = append(failed, a.CameraID)
		}
	}
	return failed
}
