// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/causeway/capture"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Errors that can be returned by this package. Check them with errors.Is.
var (
	ErrTickerNotStopped = errors.New("ticker is either running or starting")
	ErrTickerNotRunning = errors.New("ticker is either stopped or stopping")
	ErrNoRunnerProvided = errors.New("no runner provided")
	ErrNilMeasures      = errors.New("measures cannot be nil")
)

// ticking states
const (
	stopped int32 = iota
	running
	transitioning
)

type Config struct {
	// Interval between cycles.
	// (Optional). Zero disables the ticker.
	Interval time.Duration
}

// Ticker runs a capture cycle on every tick. A tick that arrives while the
// previous cycle is still running is dropped.
type Ticker struct {
	runner   capture.Runner
	interval time.Duration
	measures *Measures
	logger   *zap.Logger

	ticker   *time.Ticker
	shutdown chan struct{}
	done     chan struct{}
	state    int32
}

func NewTicker(config Config, runner capture.Runner, measures *Measures, logger *zap.Logger) (*Ticker, error) {
	if runner == nil {
		return nil, ErrNoRunnerProvided
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{
		runner:   runner,
		interval: config.Interval,
		measures: measures,
		logger:   logger,
	}, nil
}

// Enabled reports whether an interval was configured.
func (t *Ticker) Enabled() bool {
	return t.interval > 0
}

// Start begins running cycles on the interval. If the ticker is disabled
// Start is a no-op. Call Stop before starting again.
func (t *Ticker) Start(_ context.Context) error {
	if !t.Enabled() {
		t.logger.Info("no capture interval configured, ticker disabled")
		return nil
	}

	if !atomic.CompareAndSwapInt32(&t.state, stopped, transitioning) {
		t.logger.Error("Start called when the ticker was not in stopped state", zap.Error(ErrTickerNotStopped))
		return ErrTickerNotStopped
	}

	t.ticker = time.NewTicker(t.interval)
	t.shutdown = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.ticker, t.shutdown, t.done)

	atomic.SwapInt32(&t.state, running)
	t.logger.Info("capture ticker started", zap.Duration("interval", t.interval))
	return nil
}

// Stop halts the ticker and waits for an in-flight cycle to return.
func (t *Ticker) Stop(_ context.Context) error {
	if !t.Enabled() {
		return nil
	}

	if !atomic.CompareAndSwapInt32(&t.state, running, transitioning) {
		t.logger.Error("Stop called when the ticker was not in running state", zap.Error(ErrTickerNotRunning))
		return ErrTickerNotRunning
	}

	t.ticker.Stop()
	close(t.shutdown)
	<-t.done
	atomic.SwapInt32(&t.state, stopped)
	return nil
}

func (t *Ticker) run(ticker *time.Ticker, shutdown <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			ctx := sallust.With(context.Background(), t.logger)
			report := t.runner.Run(ctx, time.Time{})
			t.measures.Ticks.With(prometheus.Labels{OutcomeLabel: string(report.Outcome)}).Inc()
		}
	}
}
