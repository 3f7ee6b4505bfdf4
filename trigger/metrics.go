// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	TickCounter  = "trigger_ticks_total"
	OutcomeLabel = "outcome"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return touchstone.CounterVec(
		prometheus.CounterOpts{
			Name: TickCounter,
			Help: "Counter for cycles run by the interval trigger, by outcome.",
		},
		OutcomeLabel,
	)
}

type Measures struct {
	fx.In
	Ticks *prometheus.CounterVec `name:"trigger_ticks_total"`
}
