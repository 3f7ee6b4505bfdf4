// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/cassandra"
	"github.com/xmidt-org/causeway/summary/db/metric"
	"github.com/xmidt-org/causeway/summary/dynamodb"
	"github.com/xmidt-org/causeway/summary/file"
	"github.com/xmidt-org/causeway/summary/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	ConfigKey = "store"

	sqlitePingInterval = 30 * time.Second
)

// Configs select the summary backend. The first one set wins, in field
// order; with none set summary.json at the archive root is the store.
type Configs struct {
	Dynamo   *dynamodb.Config
	Yugabyte *cassandra.Config
	SQLite   *sqlite.Config
}

type SetupIn struct {
	fx.In
	Configs  Configs
	Fs       afero.Fs
	Measures metric.Measures
	LC       fx.Lifecycle
	Logger   *zap.Logger
}

type SetupOut struct {
	fx.Out
	Store  summary.S
	Mirror summary.Mirror
}

func Provide() fx.Option {
	return fx.Options(
		metric.ProvideMetrics(),
		fx.Provide(
			func(v *viper.Viper) (Configs, error) {
				var c Configs
				err := v.UnmarshalKey(ConfigKey, &c)
				return c, err
			},
			SetupStore,
		),
	)
}

// SetupStore builds the primary summary store. A database store is mirrored
// to summary.json so the archive stays self-describing.
func SetupStore(in SetupIn) (SetupOut, error) {
	fileStore, err := file.NewStore(in.Fs)
	if err != nil {
		return SetupOut{}, err
	}

	var s summary.S
	switch {
	case in.Configs.Dynamo != nil:
		in.Logger.Info("using dynamodb summary store implementation")
		s, err = dynamodb.NewDynamoDB(*in.Configs.Dynamo, in.Measures)
	case in.Configs.Yugabyte != nil:
		in.Logger.Info("using yugabyte summary store implementation")
		s, err = cassandra.NewStore(*in.Configs.Yugabyte, in.Measures, in.LC, in.Logger)
	case in.Configs.SQLite != nil:
		in.Logger.Info("using sqlite summary store implementation")
		s, err = setupSQLite(*in.Configs.SQLite, in.Measures, in.LC, in.Logger)
	default:
		in.Logger.Info("using file summary store implementation")
		return SetupOut{Store: fileStore}, nil
	}
	if err != nil {
		return SetupOut{}, err
	}
	return SetupOut{Store: s, Mirror: fileStore}, nil
}

func setupSQLite(config sqlite.Config, measures metric.Measures, lc fx.Lifecycle, logger *zap.Logger) (*sqlite.Store, error) {
	s, err := sqlite.NewStore(config, measures)
	if err != nil {
		return nil, err
	}
	ticker := time.NewTicker(sqlitePingInterval)
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				for {
					select {
					case <-done:
						return
					case <-ticker.C:
						if err := s.Ping(context.Background()); err != nil {
							logger.Error("ping failed", zap.Error(err))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			ticker.Stop()
			close(done)
			return s.Close()
		},
	})
	return s, nil
}
