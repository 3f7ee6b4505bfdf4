// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/archive"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/registry"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/inmem"
	"go.uber.org/zap"
)

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func nopLogger(context.Context) *zap.Logger { return zap.NewNop() }

type fakeFetcher struct {
	lock    sync.Mutex
	failing map[int]bool
	calls   []int
	delay   time.Duration
}

func (f *fakeFetcher) Fetch(_ context.Context, camera model.CameraSpec) model.CaptureAttempt {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.lock.Lock()
	f.calls = append(f.calls, camera.ID)
	f.lock.Unlock()

	a := model.CaptureAttempt{CameraID: camera.ID, Timestamp: time.Now(), Attempts: 1}
	if f.failing[camera.ID] {
		a.Attempts = 3
		a.Failure = &model.Failure{Reason: model.ReasonHTTPError, StatusCode: 503}
		return a
	}
	a.Image = jpeg
	a.ContentType = "image/jpeg"
	return a
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Write(ctx context.Context, cycleTime time.Time, attempts []model.CaptureAttempt) (model.CaptureRecord, error) {
	args := m.Called(ctx, cycleTime, attempts)
	return args.Get(0).(model.CaptureRecord), args.Error(1)
}

func (m *mockWriter) Discard(ctx context.Context, record model.CaptureRecord) error {
	return m.Called(ctx, record).Error(0)
}

type mockAggregator struct {
	mock.Mock
}

func (m *mockAggregator) Apply(ctx context.Context, record model.CaptureRecord) (model.GlobalSummary, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(model.GlobalSummary), args.Error(1)
}

func newTestMeasures() *Measures {
	return &Measures{
		Cycles:        prometheus.NewCounterVec(prometheus.CounterOpts{Name: CycleCounter}, []string{OutcomeLabel}),
		Duration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: CycleDurationSeconds}, []string{OutcomeLabel}),
		States:        prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: CycleStateGauge}, []string{StateLabel}),
		FailedCameras: prometheus.NewCounterVec(prometheus.CounterOpts{Name: FailedCameraCounter}, []string{CameraLabel}),
	}
}

type pipeline struct {
	fs         afero.Fs
	store      *inmem.InMem
	aggregator *summary.Aggregator
	measures   *Measures
	o          *Orchestrator
}

func newPipeline(t *testing.T, f Fetcher) pipeline {
	return newPipelineWithStore(t, f, func(s *inmem.InMem) summary.S { return s })
}

func newPipelineWithStore(t *testing.T, f Fetcher, wrap func(*inmem.InMem) summary.S) pipeline {
	fs := afero.NewMemMapFs()
	reg := registry.Default()
	w, err := archive.NewWriter(fs, reg, &archive.Measures{
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "files"}, []string{archive.KindLabel, archive.OutcomeLabel}),
		Bytes: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bytes"}, []string{archive.KindLabel}),
	}, nopLogger)
	require.NoError(t, err)
	r, err := archive.NewReader(fs, nopLogger)
	require.NoError(t, err)

	store := inmem.NewInMem()
	a, err := summary.NewAggregator(summary.Config{}, summary.AggregatorOptions{
		Store:    wrap(store),
		Replayer: r,
		Cameras:  reg.Len(),
		Measures: &summary.Measures{
			Aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "aggregations"}, []string{summary.OutcomeLabel}),
			Conflicts:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "conflicts"}, []string{}),
			Rebuilds:     prometheus.NewCounterVec(prometheus.CounterOpts{Name: "rebuilds"}, []string{summary.OutcomeLabel}),
			Totals:       prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "totals"}, []string{summary.TotalLabel}),
		},
		GetLogger: nopLogger,
	})
	require.NoError(t, err)

	measures := newTestMeasures()
	o, err := New(Config{}, Options{
		Registry:   reg,
		Fetcher:    f,
		Writer:     w,
		Aggregator: a,
		Measures:   measures,
		GetLogger:  nopLogger,
	})
	require.NoError(t, err)
	return pipeline{fs: fs, store: store, aggregator: a, measures: measures, o: o}
}

func cycleTime(t *testing.T, v string) time.Time {
	at, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return at
}

func TestNew(t *testing.T) {
	reg := registry.Default()
	tcs := []struct {
		Description string
		Opts        Options
		ExpectedErr error
	}{
		{
			Description: "Missing fetcher",
			Opts:        Options{Registry: reg, Writer: new(mockWriter), Aggregator: new(mockAggregator), Measures: newTestMeasures()},
			ExpectedErr: ErrNilCollaborator,
		},
		{
			Description: "Missing measures",
			Opts:        Options{Registry: reg, Fetcher: &fakeFetcher{}, Writer: new(mockWriter), Aggregator: new(mockAggregator)},
			ExpectedErr: ErrNilMeasures,
		},
		{
			Description: "Success",
			Opts:        Options{Registry: reg, Fetcher: &fakeFetcher{}, Writer: new(mockWriter), Aggregator: new(mockAggregator), Measures: newTestMeasures()},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			o, err := New(Config{}, tc.Opts)
			if tc.ExpectedErr != nil {
				assert.ErrorIs(t, err, tc.ExpectedErr)
				assert.Nil(t, o)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, Idle, o.State())
		})
	}
}

func TestRun(t *testing.T) {
	tcs := []struct {
		Description     string
		Failing         map[int]bool
		ExpectedOutcome Outcome
		ExpectedFailed  []int
		ExpectedImages  int
	}{
		{
			Description:     "All succeeded",
			ExpectedOutcome: AllSucceeded,
			ExpectedFailed:  []int{},
			ExpectedImages:  5,
		},
		{
			Description:     "Partial success",
			Failing:         map[int]bool{2702: true, 4714: true},
			ExpectedOutcome: PartialSuccess,
			ExpectedFailed:  []int{2702, 4714},
			ExpectedImages:  3,
		},
		{
			Description:     "All failed",
			Failing:         map[int]bool{2701: true, 2702: true, 4703: true, 4713: true, 4714: true},
			ExpectedOutcome: AllFailed,
			ExpectedFailed:  []int{2701, 2702, 4703, 4713, 4714},
			ExpectedImages:  0,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			f := &fakeFetcher{failing: tc.Failing}
			p := newPipeline(t, f)
			at := cycleTime(t, "2026-01-23T05:30:45+08:00")

			report := p.o.Run(context.Background(), at)
			assert.NoError(report.Err)
			assert.Empty(report.Error)
			assert.NotEmpty(report.ID)
			assert.Equal(tc.ExpectedOutcome, report.Outcome)
			assert.Equal(tc.ExpectedFailed, report.Failed)
			assert.ElementsMatch([]int{2701, 2702, 4703, 4713, 4714}, f.calls)

			require.NotNil(report.Record)
			assert.Len(report.Record.Images, tc.ExpectedImages)
			assert.Equal("2026-01-23", report.Record.Date)
			assert.Equal("05-30-45", report.Record.Time)
			assert.Len(report.Record.Metadata, 5)

			require.NotNil(report.Summary)
			day, ok := report.Summary.Day("2026-01-23")
			require.True(ok)
			assert.Equal(1, day.CaptureCount)
			assert.Equal(tc.ExpectedImages, day.ImageCount)

			stored, err := p.store.Load(context.Background())
			require.NoError(err)
			assert.Equal(int64(1), stored.Version)

			exists, err := afero.Exists(p.fs, "2026-01-23/metadata_2026-01-23_05-30-45.json")
			assert.NoError(err)
			assert.True(exists)
			for _, img := range report.Record.Images {
				exists, err := afero.Exists(p.fs, "2026-01-23/"+img.Filename)
				assert.NoError(err)
				assert.True(exists)
			}

			assert.Equal(1.0, testutil.ToFloat64(p.measures.Cycles.With(prometheus.Labels{OutcomeLabel: string(tc.ExpectedOutcome)})))
			for _, id := range tc.ExpectedFailed {
				assert.Equal(1.0, testutil.ToFloat64(p.measures.FailedCameras.With(prometheus.Labels{CameraLabel: strconv.Itoa(id)})))
			}
			for _, s := range []State{Fetching, Writing, Aggregating} {
				assert.Zero(testutil.ToFloat64(p.measures.States.With(prometheus.Labels{StateLabel: s.String()})))
			}
			assert.Equal(Idle, p.o.State())
		})
	}
}

func TestRunSameCycleTwice(t *testing.T) {
	assert := assert.New(t)
	p := newPipeline(t, &fakeFetcher{})
	at := cycleTime(t, "2026-01-23T05:30:45+08:00")

	first := p.o.Run(context.Background(), at)
	assert.Equal(AllSucceeded, first.Outcome)

	second := p.o.Run(context.Background(), at)
	assert.Equal(Aborted, second.Outcome)
	assert.ErrorIs(second.Err, archive.ErrCycleExists)
	assert.Nil(second.Summary)

	doc := p.aggregator.Snapshot()
	assert.Equal(1, doc.TotalCaptures)
	assert.Equal(5, doc.TotalImages)
}

func TestRunOverlappingCycles(t *testing.T) {
	assert := assert.New(t)
	p := newPipeline(t, &fakeFetcher{delay: 10 * time.Millisecond, failing: map[int]bool{4714: true}})

	times := []string{
		"2026-01-23T05:30:45+08:00",
		"2026-01-23T05:30:46+08:00",
		"2026-01-23T05:31:00+08:00",
		"2026-01-23T05:45:00+08:00",
	}
	reports := make([]Report, len(times))
	var wg sync.WaitGroup
	for i, v := range times {
		wg.Add(1)
		go func(i int, at time.Time) {
			defer wg.Done()
			reports[i] = p.o.Run(context.Background(), at)
		}(i, cycleTime(t, v))
	}
	wg.Wait()

	for _, r := range reports {
		assert.Equal(PartialSuccess, r.Outcome)
	}
	doc, err := p.store.Load(context.Background())
	require.NoError(t, err)
	day, ok := doc.Day("2026-01-23")
	require.True(t, ok)
	assert.Equal(4, day.CaptureCount)
	assert.Equal(16, day.ImageCount)
	assert.Equal(int64(4), doc.Version)
}

func TestRunZeroTimeUsesNow(t *testing.T) {
	assert := assert.New(t)
	p := newPipeline(t, &fakeFetcher{})
	now := cycleTime(t, "2026-01-22T23:59:59Z")
	p.o.now = func() time.Time { return now }

	report := p.o.Run(context.Background(), time.Time{})
	assert.Equal(AllSucceeded, report.Outcome)
	assert.Equal("2026-01-23", report.Record.Date)
	assert.Equal("07-59-59", report.Record.Time)
	assert.Equal(model.Singapore, report.Timestamp.Location())
}

func TestRunAborted(t *testing.T) {
	errDisk := errors.New("disk full")
	errStore := errors.New("store unavailable")
	at := cycleTime(t, "2026-01-23T05:30:45+08:00")
	record := model.CaptureRecord{
		Date:   "2026-01-23",
		Time:   "05-30-45",
		Images: []model.ImageRef{{CameraID: 2701, Filename: "camera_2701_2026-01-23_05-30-45.jpg"}},
	}

	tcs := []struct {
		Description    string
		Setup          func(w *mockWriter, a *mockAggregator)
		ExpectedErr    error
		ExpectedFailed []int
		ExpectedRecord bool
	}{
		{
			Description: "Writer failure",
			Setup: func(w *mockWriter, _ *mockAggregator) {
				w.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(model.CaptureRecord{}, errDisk).Once()
			},
			ExpectedErr:    errDisk,
			ExpectedFailed: []int{4714},
		},
		{
			Description: "Aggregator failure",
			Setup: func(w *mockWriter, a *mockAggregator) {
				w.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(record, nil).Once()
				a.On("Apply", mock.Anything, record).Return(model.GlobalSummary{}, errStore).Once()
				w.On("Discard", mock.Anything, record).Return(nil).Once()
			},
			ExpectedErr:    errStore,
			ExpectedFailed: []int{2702, 4703, 4713, 4714},
		},
		{
			Description: "Aggregator failure, discard failure",
			Setup: func(w *mockWriter, a *mockAggregator) {
				w.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(record, nil).Once()
				a.On("Apply", mock.Anything, record).Return(model.GlobalSummary{}, errStore).Once()
				w.On("Discard", mock.Anything, record).Return(errDisk).Once()
			},
			ExpectedErr:    errStore,
			ExpectedFailed: []int{2702, 4703, 4713, 4714},
			ExpectedRecord: true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			w := new(mockWriter)
			a := new(mockAggregator)
			tc.Setup(w, a)
			measures := newTestMeasures()
			o, err := New(Config{Parallelism: 2}, Options{
				Registry:   registry.Default(),
				Fetcher:    &fakeFetcher{failing: map[int]bool{4714: true}},
				Writer:     w,
				Aggregator: a,
				Measures:   measures,
				GetLogger:  nopLogger,
			})
			require.NoError(t, err)

			report := o.Run(context.Background(), at)
			assert.Equal(Aborted, report.Outcome)
			assert.ErrorIs(report.Err, tc.ExpectedErr)
			assert.Equal(tc.ExpectedErr.Error(), report.Error)
			assert.Equal(tc.ExpectedFailed, report.Failed)
			assert.Nil(report.Summary)
			assert.Equal(tc.ExpectedRecord, report.Record != nil)
			assert.Equal(1.0, testutil.ToFloat64(measures.Cycles.With(prometheus.Labels{OutcomeLabel: string(Aborted)})))
			assert.Equal(0.0, testutil.ToFloat64(measures.Cycles.With(prometheus.Labels{OutcomeLabel: ""})))
			assert.Equal(1, testutil.CollectAndCount(measures.Duration))
			assert.Equal(Idle, o.State())
			w.AssertExpectations(t)
			a.AssertExpectations(t)
		})
	}
}

// flakyStore fails the first Save and behaves normally after that.
type flakyStore struct {
	*inmem.InMem
	err   error
	calls int
}

func (f *flakyStore) Save(ctx context.Context, doc model.GlobalSummary) error {
	f.calls++
	if f.calls == 1 {
		return f.err
	}
	return f.InMem.Save(ctx, doc)
}

func TestRunRetryAfterAggregationFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	errStore := errors.New("store unavailable")
	p := newPipelineWithStore(t, &fakeFetcher{failing: map[int]bool{4714: true}}, func(s *inmem.InMem) summary.S {
		return &flakyStore{InMem: s, err: errStore}
	})
	at := cycleTime(t, "2026-01-23T05:30:45+08:00")

	first := p.o.Run(context.Background(), at)
	assert.Equal(Aborted, first.Outcome)
	assert.ErrorIs(first.Err, errStore)
	assert.Nil(first.Record)
	exists, err := afero.Exists(p.fs, model.MetadataPath(model.StampOf(at)))
	require.NoError(err)
	assert.False(exists)
	assert.Equal(1.0, testutil.ToFloat64(p.measures.Cycles.With(prometheus.Labels{OutcomeLabel: string(Aborted)})))

	second := p.o.Run(context.Background(), at)
	assert.Equal(PartialSuccess, second.Outcome)
	require.NoError(second.Err)
	require.NotNil(second.Summary)
	assert.Equal(1, second.Summary.TotalCaptures)
	assert.Equal(4, second.Summary.TotalImages)

	records, err := archive.NewReader(p.fs, nopLogger)
	require.NoError(err)
	all, err := records.Records(context.Background())
	require.NoError(err)
	assert.Len(all, 1)
}

func TestStateString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("idle", Idle.String())
	assert.Equal("fetching", Fetching.String())
	assert.Equal("writing", Writing.String())
	assert.Equal("aggregating", Aggregating.String())
}
