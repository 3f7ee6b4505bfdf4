// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ConfigKey holds an optional replacement for the built-in camera table.
const ConfigKey = "cameras"

type ProvideIn struct {
	fx.In
	Viper  *viper.Viper
	Logger *zap.Logger
}

// Provide builds the registry from configuration, falling back to Default.
func Provide() fx.Option {
	return fx.Provide(
		func(in ProvideIn) (*Registry, error) {
			var specs []model.CameraSpec
			if err := in.Viper.UnmarshalKey(ConfigKey, &specs); err != nil {
				return nil, err
			}
			if len(specs) == 0 {
				r := Default()
				in.Logger.Info("using built-in camera registry", zap.Int("cameras", r.Len()))
				return r, nil
			}
			r, err := New(specs)
			if err != nil {
				return nil, err
			}
			in.Logger.Info("using configured camera registry", zap.Int("cameras", r.Len()))
			return r, nil
		},
	)
}
