// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	CycleCounter         = "capture_cycles_total"
	CycleDurationSeconds = "capture_cycle_duration_seconds"
	CycleStateGauge      = "capture_cycles_in_state"
	FailedCameraCounter  = "capture_failed_cameras_total"
)

// Labels
const (
	OutcomeLabel = "outcome"
	StateLabel   = "state"
	CameraLabel  = "camera"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: CycleCounter,
				Help: "Counter for completed capture cycles, by outcome.",
			},
			OutcomeLabel,
		),
		touchstone.HistogramVec(
			prometheus.HistogramOpts{
				Name:    CycleDurationSeconds,
				Help:    "A histogram of capture cycle durations, by outcome.",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			OutcomeLabel,
		),
		touchstone.GaugeVec(
			prometheus.GaugeOpts{
				Name: CycleStateGauge,
				Help: "The number of capture cycles currently in each state.",
			},
			StateLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: FailedCameraCounter,
				Help: "Counter for cameras missing from a written capture record.",
			},
			CameraLabel,
		),
	)
}

type Measures struct {
	fx.In
	Cycles        *prometheus.CounterVec   `name:"capture_cycles_total"`
	Duration      *prometheus.HistogramVec `name:"capture_cycle_duration_seconds"`
	States        *prometheus.GaugeVec     `name:"capture_cycles_in_state"`
	FailedCameras *prometheus.CounterVec   `name:"capture_failed_cameras_total"`
}
