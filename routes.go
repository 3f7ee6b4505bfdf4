// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/arrange/arrangehttp"
	"github.com/xmidt-org/candlelight"
	"github.com/xmidt-org/causeway/capture"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/httpaux"
	"github.com/xmidt-org/httpaux/recovery"
	"github.com/xmidt-org/touchstone/touchhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/fx"
)

const (
	primaryServer = "primary"
	metricsServer = "metrics"
	healthServer  = "health"
)

// Configuration keys, which double as the names of the *mux.Router components.
const (
	primaryServerKey = "servers." + primaryServer
	metricsServerKey = "servers." + metricsServer
	healthServerKey  = "servers." + healthServer
)

// PrimaryServerIn is injected into the primary server.  Listeners lets
// callers decorate the net.Listener, which tests use to learn the bound address.
type PrimaryServerIn struct {
	fx.In
	Middleware alice.Chain                       `name:"servers.primary.middleware"`
	Listeners  []arrangehttp.ListenerConstructor `group:"servers.primary.listeners"`
}

type MetricsServerIn struct {
	fx.In
	Listeners []arrangehttp.ListenerConstructor `group:"servers.metrics.listeners"`
}

type HealthServerIn struct {
	fx.In
	Middleware alice.Chain                       `name:"servers.health.middleware"`
	Listeners  []arrangehttp.ListenerConstructor `group:"servers.health.listeners"`
}

// provideServers unmarshals servers.primary, servers.metrics and servers.health
// and binds each server to the application lifecycle.
func provideServers() fx.Option {
	return fx.Options(
		arrangehttp.Server{
			Name: primaryServerKey,
			Key:  primaryServerKey,
			ServerFactory: arrangehttp.ServerConfig{
				Address:      ":6600",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 5 * time.Minute,
			},
			Inject: arrange.Inject{PrimaryServerIn{}},
		}.Provide(),
		arrangehttp.Server{
			Name: metricsServerKey,
			Key:  metricsServerKey,
			ServerFactory: arrangehttp.ServerConfig{
				Address: ":6601",
			},
			Inject: arrange.Inject{MetricsServerIn{}},
		}.Provide(),
		arrangehttp.Server{
			Name: healthServerKey,
			Key:  healthServerKey,
			ServerFactory: arrangehttp.ServerConfig{
				Address: ":6602",
			},
			Inject: arrange.Inject{HealthServerIn{}},
		}.Provide(),
		fx.Invoke(
			BuildPrimaryRoutes,
			BuildMetricsRoutes,
			BuildHealthRoutes,
		),
	)
}

type PrimaryHandlersIn struct {
	fx.In
	RunCycle capture.Handler `name:"run_cycle_handler"`
	Summary  summary.Handler `name:"get_summary_handler"`
	Rebuild  summary.Handler `name:"rebuild_summary_handler"`
}

type PrimaryRoutesIn struct {
	fx.In
	Router    *mux.Router `name:"servers.primary"`
	Tracing   candlelight.Tracing
	AuthChain alice.Chain `name:"primary_auth_chain"`
	Handlers  PrimaryHandlersIn
}

// BuildPrimaryRoutes mounts the cycle and summary API.
func BuildPrimaryRoutes(in PrimaryRoutesIn) {
	in.Router.Use(
		recovery.Middleware(recovery.WithStatusCode(555)),
		otelmux.Middleware("server_primary",
			otelmux.WithTracerProvider(in.Tracing.TracerProvider()),
			otelmux.WithPropagators(in.Tracing.Propagator()),
		),
		candlelight.EchoFirstTraceNodeInfo(in.Tracing, false),
	)

	api := in.Router.PathPrefix("/" + apiBase).Subrouter()
	api.Handle("/cycles", in.AuthChain.Then(in.Handlers.RunCycle)).Methods(http.MethodPost)
	api.Handle("/summary", in.AuthChain.Then(in.Handlers.Summary)).Methods(http.MethodGet)
	api.Handle("/summary/rebuild", in.AuthChain.Then(in.Handlers.Rebuild)).Methods(http.MethodPost)
}

type MetricsRoutesIn struct {
	fx.In
	Router  *mux.Router `name:"servers.metrics"`
	Handler touchhttp.Handler
}

// BuildMetricsRoutes exposes the touchstone registry.
func BuildMetricsRoutes(in MetricsRoutesIn) {
	in.Router.Handle("/metrics", in.Handler).Methods(http.MethodGet)
}

type HealthRoutesIn struct {
	fx.In
	Router *mux.Router `name:"servers.health"`
}

// BuildHealthRoutes answers liveness checks.
func BuildHealthRoutes(in HealthRoutesIn) {
	in.Router.Handle("/health", httpaux.ConstantHandler{
		StatusCode: http.StatusOK,
	}).Methods(http.MethodGet)
}
