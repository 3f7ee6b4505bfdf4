// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"context"

	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/archive"
	"github.com/xmidt-org/causeway/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ConfigKey = "summary"

type AggregatorIn struct {
	fx.In
	Viper    *viper.Viper
	Store    S
	Mirror   Mirror `optional:"true"`
	Reader   *archive.Reader
	Registry *registry.Registry
	Measures Measures
	LC       fx.Lifecycle
	Logger   *zap.Logger
}

type handlerIn struct {
	fx.In
	Aggregator *Aggregator
}

// Provide wires the aggregator, its metrics and its HTTP handlers.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			provideAggregator,
			fx.Annotated{
				Name: "get_summary_handler",
				Target: func(in handlerIn) Handler {
					return NewGetSummaryHandler(in.Aggregator)
				},
			},
			fx.Annotated{
				Name: "rebuild_summary_handler",
				Target: func(in handlerIn) Handler {
					return NewRebuildHandler(in.Aggregator)
				},
			},
		),
	)
}

func provideAggregator(in AggregatorIn) (*Aggregator, error) {
	var config Config
	if err := in.Viper.UnmarshalKey(ConfigKey, &config); err != nil {
		return nil, err
	}

	a, err := NewAggregator(config, AggregatorOptions{
		Store:    in.Store,
		Replayer: in.Reader,
		Mirror:   in.Mirror,
		Cameras:  in.Registry.Len(),
		Measures: &in.Measures,
	})
	if err != nil {
		return nil, err
	}

	in.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			doc, err := a.Refresh(ctx)
			if err != nil {
				in.Logger.Error("failed to load summary", zap.Error(err))
				return nil
			}
			in.Logger.Info("summary loaded",
				zap.Int64("version", doc.Version),
				zap.Int("totalDaysMonitored", doc.TotalDaysMonitored),
				zap.Int("totalCaptures", doc.TotalCaptures))
			return nil
		},
	})
	return a, nil
}
