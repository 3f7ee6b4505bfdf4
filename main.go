// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/causeway/archive"
	"github.com/xmidt-org/causeway/auth"
	"github.com/xmidt-org/causeway/capture"
	"github.com/xmidt-org/causeway/fetch"
	"github.com/xmidt-org/causeway/registry"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/causeway/summary/db"
	"github.com/xmidt-org/causeway/trigger"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	applicationName = "causeway"
	apiBase         = "api/v1"

	// abortedExitCode is returned by --once when the cycle was aborted.
	abortedExitCode = 3
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

// pipeline wires everything a capture cycle needs.
func pipeline(v *viper.Viper, logger *zap.Logger) fx.Option {
	return fx.Options(
		arrange.LoggerFunc(logger.Sugar().Infof),
		arrange.ForViper(v),
		fx.Supply(logger, v),
		touchstone.Provide(),
		fx.Provide(
			func(v *viper.Viper) (touchstone.Config, error) {
				config := touchstone.Config{
					DefaultNamespace: "xmidt",
					DefaultSubsystem: applicationName,
				}
				err := v.UnmarshalKey("prometheus", &config)
				return config, err
			},
		),
		registry.Provide(),
		fetch.Provide(),
		archive.Provide(),
		db.Provide(),
		summary.Provide(),
		capture.Provide(),
	)
}

// server adds the HTTP servers and the interval trigger.
func server() fx.Option {
	return fx.Options(
		provideMetrics(),
		auth.ProvidePrimaryServerChain(),
		trigger.Provide(),
		provideServers(),
		fx.Provide(
			candlelight.New,
			func(v *viper.Viper) (candlelight.Config, error) {
				var config candlelight.Config
				err := v.UnmarshalKey("tracing", &config)
				if err != nil {
					return candlelight.Config{}, err
				}
				config.ApplicationName = applicationName
				return config, nil
			},
		),
	)
}

func main() {
	v, logger, opts, err := setup(os.Args[1:])
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch opts.mode {
	case onceMode:
		os.Exit(runOnce(v, logger, opts, os.Stdout))
	case rebuildMode:
		os.Exit(runRebuild(v, logger, os.Stdout))
	}

	app := fx.New(
		pipeline(v, logger),
		server(),
	)

	switch err := app.Err(); {
	case errors.Is(err, pflag.ErrHelp):
		return
	case err == nil:
		app.Run()
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// runOnce runs a single cycle and prints its report.
func runOnce(v *viper.Viper, logger *zap.Logger, opts options, out io.Writer) int {
	var o *capture.Orchestrator
	return runWith(v, logger, fx.Populate(&o), func(ctx context.Context) int {
		report := o.Run(ctx, opts.at)
		if err := writeJSON(out, report); err != nil {
			logger.Error("failed to print report", zap.Error(err))
		}
		if report.Outcome == capture.Aborted {
			return abortedExitCode
		}
		return 0
	})
}

// runRebuild replays the archive into the summary and prints the result.
func runRebuild(v *viper.Viper, logger *zap.Logger, out io.Writer) int {
	var a *summary.Aggregator
	return runWith(v, logger, fx.Populate(&a), func(ctx context.Context) int {
		doc, err := a.Rebuild(ctx)
		if err != nil {
			logger.Error("failed to rebuild summary", zap.Error(err))
			return 1
		}
		if err := writeJSON(out, doc); err != nil {
			logger.Error("failed to print summary", zap.Error(err))
		}
		return 0
	})
}

func runWith(v *viper.Viper, logger *zap.Logger, populate fx.Option, task func(context.Context) int) int {
	app := fx.New(pipeline(v, logger), populate)
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	code := task(context.Background())

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warn("failed to stop cleanly", zap.Error(err))
	}
	return code
}

func writeJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
