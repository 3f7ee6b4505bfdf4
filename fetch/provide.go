// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"net/http"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ConfigKey     = "fetch"
	AccountKeyKey = "fetch.datamall.accountKey"
)

type ResolverIn struct {
	fx.In
	Config Config
	Logger *zap.Logger
}

type FetcherIn struct {
	fx.In
	Config   Config
	Resolver Resolver
	Measures Measures
}

// Provide wires the image fetcher, its resolver and its metrics.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			unmarshalConfig,
			provideResolver,
			func(in FetcherIn) (*Fetcher, error) {
				return New(in.Config, new(http.Client), in.Resolver, &in.Measures, nil)
			},
		),
	)
}

func unmarshalConfig(v *viper.Viper) (Config, error) {
	var config Config
	if err := v.UnmarshalKey(ConfigKey, &config); err != nil {
		return Config{}, err
	}
	// the account key is normally only present in the environment
	if key := v.GetString(AccountKeyKey); key != "" {
		config.DataMall.AccountKey = key
	}
	return config, nil
}

func provideResolver(in ResolverIn) (Resolver, error) {
	if in.Config.DataMall.AccountKey != "" {
		in.Logger.Info("using datamall link resolver")
		return NewDataMallResolver(in.Config.DataMall, new(http.Client), nil)
	}
	in.Logger.Info("using static link resolver", zap.String("template", in.Config.URLTemplate))
	return StaticResolver{Template: in.Config.URLTemplate}, nil
}
