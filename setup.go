// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/causeway/fetch"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// accountKeyEnv holds the DataMall account key when it is not configured.
const accountKeyEnv = "LTA_API_KEY"

var errInvalidAt = errors.New("--at must be an RFC3339 timestamp")

// mode selects what the process does after wiring.
type mode int

const (
	serveMode mode = iota
	onceMode
	rebuildMode
)

type options struct {
	mode mode
	at   time.Time
}

func setupFlagSet(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "the configuration file to use.  Overrides the search path.")
	fs.BoolP("debug", "d", false, "enables debug logging.  Overrides configuration.")
	fs.BoolP("version", "v", false, "print version and exit")
	fs.Bool("once", false, "run a single capture cycle, print its report and exit")
	fs.String("at", "", "the RFC3339 cycle time used with --once.  Defaults to now.")
	fs.Bool("rebuild", false, "rebuild the summary from the archive and exit")
}

func setup(args []string) (*viper.Viper, *zap.Logger, options, error) {
	var opts options
	l, err := zap.NewDevelopment() // initial value
	if err != nil {
		return nil, l, opts, fmt.Errorf("failed to create zap logger: %w", err)
	}

	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	setupFlagSet(fs)
	err = fs.Parse(args)
	if err != nil {
		return nil, l, opts, fmt.Errorf("failed to parse args: %w", err)
	}
	if printVersion, _ := fs.GetBool("version"); printVersion {
		printVersionInfo()
	}

	opts, err = parseOptions(fs)
	if err != nil {
		return nil, l, opts, err
	}

	v := viper.New()
	if file, _ := fs.GetString("file"); len(file) > 0 {
		v.SetConfigFile(file)
		err = v.ReadInConfig()
	} else {
		v.SetConfigName(applicationName)
		v.AddConfigPath(fmt.Sprintf("/etc/%s", applicationName))
		v.AddConfigPath(fmt.Sprintf("$HOME/.%s", applicationName))
		v.AddConfigPath(".")
		err = v.ReadInConfig()

		// every setting has a default, so running without a file is fine
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			err = nil
		}
	}
	if err != nil {
		return v, l, opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = v.BindEnv(fetch.AccountKeyKey, accountKeyEnv); err != nil {
		return v, l, opts, err
	}

	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("logging.level", "DEBUG")
	}

	var c sallust.Config
	err = v.UnmarshalKey("logging", &c, arrange.ComposeDecodeHooks(sallust.DecodeHook))
	if err != nil {
		return v, l, opts, err
	}

	l, err = c.Build()
	return v, l, opts, err
}

func parseOptions(fs *pflag.FlagSet) (options, error) {
	var opts options
	once, _ := fs.GetBool("once")
	rebuild, _ := fs.GetBool("rebuild")
	switch {
	case once && rebuild:
		return opts, errors.New("--once and --rebuild are mutually exclusive")
	case once:
		opts.mode = onceMode
	case rebuild:
		opts.mode = rebuildMode
	}

	at, _ := fs.GetString("at")
	if at == "" {
		return opts, nil
	}
	if opts.mode != onceMode {
		return opts, errors.New("--at requires --once")
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return opts, fmt.Errorf("%w: %v", errInvalidAt, err)
	}
	opts.at = t
	return opts, nil
}

func printVersionInfo() {
	fmt.Fprintf(os.Stdout, "%s:\n", applicationName)
	fmt.Fprintf(os.Stdout, "  version: \t%s\n", Version)
	fmt.Fprintf(os.Stdout, "  go version: \t%s\n", runtime.Version())
	fmt.Fprintf(os.Stdout, "  built time: \t%s\n", BuildTime)
	fmt.Fprintf(os.Stdout, "  git commit: \t%s\n", GitCommit)
	fmt.Fprintf(os.Stdout, "  os/arch: \t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	os.Exit(0)
}
