// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/registry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ConfigKey   = "archive"
	defaultRoot = "traffic_images"
)

// Config locates the archive on disk.
type Config struct {
	// Root is the directory holding the date partitions and summary.json.
	// (Optional) Defaults to traffic_images.
	Root string
}

type WriterIn struct {
	fx.In
	Fs       afero.Fs
	Registry *registry.Registry
	Measures Measures
}

// Provide wires the archive filesystem, writer, reader and metrics.
func Provide() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			func(v *viper.Viper, logger *zap.Logger) (afero.Fs, error) {
				var config Config
				if err := v.UnmarshalKey(ConfigKey, &config); err != nil {
					return nil, err
				}
				return NewFs(config, afero.NewOsFs(), logger)
			},
			func(in WriterIn) (*Writer, error) {
				return NewWriter(in.Fs, in.Registry, &in.Measures, nil)
			},
			func(fs afero.Fs) (*Reader, error) {
				return NewReader(fs, nil)
			},
		),
	)
}

// NewFs creates the archive root on base and returns a filesystem scoped to it.
func NewFs(config Config, base afero.Fs, logger *zap.Logger) (afero.Fs, error) {
	if config.Root == "" {
		config.Root = defaultRoot
	}
	if err := base.MkdirAll(config.Root, dirPerm); err != nil {
		return nil, err
	}
	logger.Info("using archive root", zap.String("root", config.Root))
	return afero.NewBasePathFs(base, config.Root), nil
}
