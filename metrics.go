// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/justinas/alice"
	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.uber.org/fx"
)

// Component names of the per-server request instrumentation.
const (
	primaryMetrics    = "servers.primary.metrics"
	healthMetrics     = "servers.health.metrics"
	primaryMiddleware = "servers.primary.middleware"
	healthMiddleware  = "servers.health.middleware"
)

// provideMetrics builds the server request metrics and the handler that
// renders the touchstone registry.
func provideMetrics() fx.Option {
	return fx.Options(
		touchhttp.Provide(),
		fx.Provide(
			func(v *viper.Viper) (touchhttp.Config, error) {
				var config touchhttp.Config
				err := v.UnmarshalKey("prometheusHandler", &config)
				return config, err
			},
			fx.Annotated{
				Name: primaryMetrics,
				Target: touchhttp.ServerBundle{}.NewInstrumenter(
					touchhttp.ServerLabel, primaryServer,
				),
			},
			fx.Annotated{
				Name: healthMetrics,
				Target: touchhttp.ServerBundle{}.NewInstrumenter(
					touchhttp.ServerLabel, healthServer,
				),
			},
			fx.Annotate(
				instrumentedChain,
				fx.ParamTags(`name:"`+primaryMetrics+`"`),
				fx.ResultTags(`name:"`+primaryMiddleware+`"`),
			),
			fx.Annotate(
				instrumentedChain,
				fx.ParamTags(`name:"`+healthMetrics+`"`),
				fx.ResultTags(`name:"`+healthMiddleware+`"`),
			),
		),
	)
}

// instrumentedChain wraps a whole server, so unmatched routes are counted too.
func instrumentedChain(si touchhttp.ServerInstrumenter) alice.Chain {
	return alice.New(si.Then)
}
