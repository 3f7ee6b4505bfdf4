// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/xmidt-org/bascule"
	"github.com/xmidt-org/bascule/basculehttp"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ConfigKey = "auth"

// Config is the inbound auth profile of the primary server.
type Config struct {
	// Basic lists base64 encoded user:password pairs.
	Basic []string

	Bearer      BearerConfig
	AccessLevel AccessLevelConfig
}

type PrimaryChainIn struct {
	fx.In
	Viper      *viper.Viper
	Logger     *zap.Logger
	Validation *prometheus.CounterVec `name:"auth_validation"`
}

// ProvidePrimaryServerChain provides the primary_auth_chain. Without any
// configured credentials the chain only sets up request logging.
func ProvidePrimaryServerChain() fx.Option {
	return fx.Options(
		ProvideMetrics(),
		fx.Provide(
			fx.Annotated{
				Name: "primary_auth_chain",
				Target: func(in PrimaryChainIn) (alice.Chain, error) {
					var config Config
					if err := in.Viper.UnmarshalKey(ConfigKey, &config); err != nil {
						return alice.Chain{}, err
					}
					return NewChain(config, "primary", in.Logger, in.Validation)
				},
			},
		),
	)
}

// NewChain builds the logging, bascule constructor, enforcer and metric
// listener chain for a server.
func NewChain(config Config, serverName string, logger *zap.Logger, validation *prometheus.CounterVec) (alice.Chain, error) {
	chain := alice.New(SetLogger(logger, serverName))
	accessLevel := NewAccessLevel(config.AccessLevel)

	var options []basculehttp.COption
	if len(config.Basic) > 0 {
		btf, err := basculehttp.NewBasicTokenFactoryFromList(config.Basic)
		if err != nil {
			return alice.Chain{}, err
		}
		options = append(options, basculehttp.WithTokenFactory(BasicAuthorization, btf))
	}
	if len(config.Bearer.Keys) > 0 {
		options = append(options, basculehttp.WithTokenFactory(BearerAuthorization, newBearerTokenFactory(config.Bearer, accessLevel)))
	}
	if len(options) == 0 {
		logger.Warn("no inbound credentials configured, requests are not authenticated", zap.String("server", serverName))
		return chain, nil
	}

	outcomes, err := validation.CurryWith(prometheus.Labels{ServerLabel: serverName})
	if err != nil {
		return alice.Chain{}, err
	}
	listener := metricListener{outcomes: outcomes}
	options = append(options, basculehttp.WithCErrorResponseFunc(listener.OnErrorResponse))

	return chain.Append(
		basculehttp.NewConstructor(options...),
		newEnforcer(accessLevel, listener.OnErrorResponse),
		basculehttp.NewListenerDecorator(listener),
		annotateLogger,
	), nil
}

// annotateLogger adds the authenticated principal to the request logger.
func annotateLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth, ok := bascule.FromContext(r.Context()); ok {
			ctx := r.Context()
			r = r.WithContext(sallust.With(ctx, sallust.Get(ctx).With(
				zap.String("principal", auth.Token.Principal()),
				zap.String("tokenType", auth.Token.Type()))))
		}
		next.ServeHTTP(w, r)
	})
}
