// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	AggregationCounter = "summary_aggregations_total"
	ConflictCounter    = "summary_version_conflicts_total"
	RebuildCounter     = "summary_rebuilds_total"
	TotalsGauge        = "summary_totals"
)

// Labels
const (
	OutcomeLabel = "outcome"
	TotalLabel   = "total"
)

// Label Values
const (
	AppliedOutcome   = "applied"
	DuplicateOutcome = "duplicate"
	RejectedOutcome  = "rejected"
	FailureOutcome   = "failure"
	SuccessOutcome   = "success"

	DaysTotal     = "days"
	CapturesTotal = "captures"
	ImagesTotal   = "images"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: AggregationCounter,
				Help: "Counter for capture records folded into the summary, by outcome.",
			},
			OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: ConflictCounter,
				Help: "Counter for summary saves rejected because another writer committed first.",
			},
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RebuildCounter,
				Help: "Counter for full archive replays, by outcome.",
			},
			OutcomeLabel,
		),
		touchstone.GaugeVec(
			prometheus.GaugeOpts{
				Name: TotalsGauge,
				Help: "The all-time totals of the last committed summary.",
			},
			TotalLabel,
		),
	)
}

type Measures struct {
	fx.In
	Aggregations *prometheus.CounterVec `name:"summary_aggregations_total"`
	Conflicts    *prometheus.CounterVec `name:"summary_version_conflicts_total"`
	Rebuilds     *prometheus.CounterVec `name:"summary_rebuilds_total"`
	Totals       *prometheus.GaugeVec   `name:"summary_totals"`
}
