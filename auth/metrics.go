// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/bascule"
	"github.com/xmidt-org/bascule/basculehttp"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	ValidationCounter = "auth_validation"

	ServerLabel  = "server"
	OutcomeLabel = "outcome"
)

// AcceptedOutcome labels authenticated requests. Rejections are labeled with
// the bascule error response reason.
const AcceptedOutcome = "Accepted"

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return touchstone.CounterVec(
		prometheus.CounterOpts{
			Name: ValidationCounter,
			Help: "Counter for request authentication and authorization outcomes.",
		},
		ServerLabel,
		OutcomeLabel,
	)
}

// metricListener counts the outcome of every request through the chain.
type metricListener struct {
	outcomes *prometheus.CounterVec
}

func (m metricListener) OnAuthenticated(bascule.Authentication) {
	m.outcomes.With(prometheus.Labels{OutcomeLabel: AcceptedOutcome}).Inc()
}

func (m metricListener) OnErrorResponse(reason basculehttp.ErrorResponseReason, _ error) {
	m.outcomes.With(prometheus.Labels{OutcomeLabel: reason.String()}).Inc()
}
