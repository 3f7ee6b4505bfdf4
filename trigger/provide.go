// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/capture"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ConfigKey = "trigger"

type TickerIn struct {
	fx.In
	Viper        *viper.Viper
	Orchestrator *capture.Orchestrator
	Measures     Measures
	Logger       *zap.Logger
}

// Provide wires the interval trigger and ties it to the application
// lifecycle.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			func(in TickerIn) (*Ticker, error) {
				var config Config
				if err := in.Viper.UnmarshalKey(ConfigKey, &config); err != nil {
					return nil, err
				}
				return NewTicker(config, in.Orchestrator, &in.Measures, in.Logger)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *Ticker) {
				lc.Append(fx.Hook{
					OnStart: t.Start,
					OnStop:  t.Stop,
				})
			},
		),
	)
}
