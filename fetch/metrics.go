// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	ResultCounter   = "fetch_results_total"
	RequestCounter  = "fetch_requests_total"
	DurationSeconds = "fetch_duration_seconds"
)

// Labels
const (
	CameraLabel  = "camera"
	OutcomeLabel = "outcome"
	CodeLabel    = "code"
)

// Label Values
const (
	SuccessOutcome = "success"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: ResultCounter,
				Help: "Counter for per camera fetch results by outcome (success or failure reason).",
			},
			CameraLabel, OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RequestCounter,
				Help: "Counter for outbound image requests by response code.",
			},
			CodeLabel,
		),
		touchstone.HistogramVec(
			prometheus.HistogramOpts{
				Name:    DurationSeconds,
				Help:    "Time spent fetching one camera, retries included.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			OutcomeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Results  *prometheus.CounterVec   `name:"fetch_results_total"`
	Requests *prometheus.CounterVec   `name:"fetch_requests_total"`
	Duration *prometheus.HistogramVec `name:"fetch_duration_seconds"`
}
