// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/archive"
	"github.com/xmidt-org/causeway/fetch"
	"github.com/xmidt-org/causeway/registry"
	"github.com/xmidt-org/causeway/summary"
	"go.uber.org/fx"
)

const ConfigKey = "capture"

type OrchestratorIn struct {
	fx.In
	Viper      *viper.Viper
	Registry   *registry.Registry
	Fetcher    *fetch.Fetcher
	Writer     *archive.Writer
	Aggregator *summary.Aggregator
	Measures   Measures
}

type handlerIn struct {
	fx.In
	Orchestrator *Orchestrator
}

// Provide wires the orchestrator, its metrics and the cycle handler.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			func(in OrchestratorIn) (*Orchestrator, error) {
				var config Config
				if err := in.Viper.UnmarshalKey(ConfigKey, &config); err != nil {
					return nil, err
				}
				return New(config, Options{
					Registry:   in.Registry,
					Fetcher:    in.Fetcher,
					Writer:     in.Writer,
					Aggregator: in.Aggregator,
					Measures:   &in.Measures,
				})
			},
			fx.Annotated{
				Name: "run_cycle_handler",
				Target: func(in handlerIn) Handler {
					return NewRunCycleHandler(in.Orchestrator)
				},
			},
		),
	)
}
