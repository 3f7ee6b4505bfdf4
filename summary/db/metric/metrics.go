// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/causeway/summary"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Metrics shared by every database backend
const (
	PoolInUseConnectionsGauge = "summary_store_pool_in_use_connections"
	QueryDurationHistogram    = "summary_store_query_duration_seconds"
	QuerySuccessCounter       = "summary_store_query_success_count"
	QueryFailureCounter       = "summary_store_query_failure_count"
	SavedDocumentsCounter     = "summary_store_saved_documents_count"
	LoadedDocumentsCounter    = "summary_store_loaded_documents_count"
)

// DynamoDB capacity metrics
const (
	CapacityUnitConsumedCounter  = "summary_store_capacity_unit_consumed"
	ReadCapacityConsumedCounter  = "summary_store_read_capacity_unit_consumed"
	WriteCapacityConsumedCounter = "summary_store_write_capacity_unit_consumed"
)

var (
	poolInUseConnectionsOpts = prometheus.GaugeOpts{
		Name: PoolInUseConnectionsGauge,
		Help: "The number of database connections currently in use",
	}
	queryDurationOpts = prometheus.HistogramOpts{
		Name:    QueryDurationHistogram,
		Help:    "Latency of summary store queries, by query type.",
		Buckets: []float64{0.0625, 0.125, .25, .5, 1, 5, 10, 20, 40, 80, 160},
	}
	querySuccessOpts = prometheus.CounterOpts{
		Name: QuerySuccessCounter,
		Help: "Summary store queries that completed, by query type. Version conflicts and missing documents count as completed.",
	}
	queryFailureOpts = prometheus.CounterOpts{
		Name: QueryFailureCounter,
		Help: "Summary store queries that failed, by query type.",
	}
	savedDocumentsOpts = prometheus.CounterOpts{
		Name: SavedDocumentsCounter,
		Help: "Summary documents committed to the store.",
	}
	loadedDocumentsOpts = prometheus.CounterOpts{
		Name: LoadedDocumentsCounter,
		Help: "Summary documents loaded from the store.",
	}
	capacityUnitOpts = prometheus.CounterOpts{
		Name: CapacityUnitConsumedCounter,
		Help: "DynamoDB capacity units consumed, by query type.",
	}
	readCapacityUnitOpts = prometheus.CounterOpts{
		Name: ReadCapacityConsumedCounter,
		Help: "DynamoDB read capacity units consumed, by query type.",
	}
	writeCapacityUnitOpts = prometheus.CounterOpts{
		Name: WriteCapacityConsumedCounter,
		Help: "DynamoDB write capacity units consumed, by query type.",
	}
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.GaugeVec(poolInUseConnectionsOpts),
		touchstone.HistogramVec(queryDurationOpts, summary.TypeLabel),
		touchstone.CounterVec(querySuccessOpts, summary.TypeLabel),
		touchstone.CounterVec(queryFailureOpts, summary.TypeLabel),
		touchstone.CounterVec(savedDocumentsOpts),
		touchstone.CounterVec(loadedDocumentsOpts),
		touchstone.CounterVec(capacityUnitOpts, summary.TypeLabel),
		touchstone.CounterVec(readCapacityUnitOpts, summary.TypeLabel),
		touchstone.CounterVec(writeCapacityUnitOpts, summary.TypeLabel),
		fx.Provide(NewMeasures),
	)
}

// Vecs are the registered collectors behind Measures.
type Vecs struct {
	fx.In
	PoolInUseConnections *prometheus.GaugeVec     `name:"summary_store_pool_in_use_connections"`
	QueryDuration        *prometheus.HistogramVec `name:"summary_store_query_duration_seconds"`
	QuerySuccessCount    *prometheus.CounterVec   `name:"summary_store_query_success_count"`
	QueryFailureCount    *prometheus.CounterVec   `name:"summary_store_query_failure_count"`
	SavedDocuments       *prometheus.CounterVec   `name:"summary_store_saved_documents_count"`
	LoadedDocuments      *prometheus.CounterVec   `name:"summary_store_loaded_documents_count"`

	CapacityUnitConsumedCount      *prometheus.CounterVec `name:"summary_store_capacity_unit_consumed"`
	ReadCapacityUnitConsumedCount  *prometheus.CounterVec `name:"summary_store_read_capacity_unit_consumed"`
	WriteCapacityUnitConsumedCount *prometheus.CounterVec `name:"summary_store_write_capacity_unit_consumed"`
}

// NewUnregisteredVecs creates the same collectors ProvideMetrics registers,
// without registering them anywhere. Tests read them back with
// prometheus/testutil.
func NewUnregisteredVecs() Vecs {
	typed := []string{summary.TypeLabel}
	return Vecs{
		PoolInUseConnections:           prometheus.NewGaugeVec(poolInUseConnectionsOpts, nil),
		QueryDuration:                  prometheus.NewHistogramVec(queryDurationOpts, typed),
		QuerySuccessCount:              prometheus.NewCounterVec(querySuccessOpts, typed),
		QueryFailureCount:              prometheus.NewCounterVec(queryFailureOpts, typed),
		SavedDocuments:                 prometheus.NewCounterVec(savedDocumentsOpts, nil),
		LoadedDocuments:                prometheus.NewCounterVec(loadedDocumentsOpts, nil),
		CapacityUnitConsumedCount:      prometheus.NewCounterVec(capacityUnitOpts, typed),
		ReadCapacityUnitConsumedCount:  prometheus.NewCounterVec(readCapacityUnitOpts, typed),
		WriteCapacityUnitConsumedCount: prometheus.NewCounterVec(writeCapacityUnitOpts, typed),
	}
}

// Measures are the backend metrics, labeled with summary.TypeLabel where the
// collector has it.
type Measures struct {
	PoolInUseConnections metrics.Gauge
	QueryDuration        metrics.Histogram
	QuerySuccessCount    metrics.Counter
	QueryFailureCount    metrics.Counter
	SavedDocuments       metrics.Counter
	LoadedDocuments      metrics.Counter

	// DynamoDB Metrics
	CapacityUnitConsumedCount      metrics.Counter
	ReadCapacityUnitConsumedCount  metrics.Counter
	WriteCapacityUnitConsumedCount metrics.Counter
}

func NewMeasures(in Vecs) Measures {
	return Measures{
		PoolInUseConnections:           kitprometheus.NewGauge(in.PoolInUseConnections),
		QueryDuration:                  kitprometheus.NewHistogram(in.QueryDuration),
		QuerySuccessCount:              kitprometheus.NewCounter(in.QuerySuccessCount),
		QueryFailureCount:              kitprometheus.NewCounter(in.QueryFailureCount),
		SavedDocuments:                 kitprometheus.NewCounter(in.SavedDocuments),
		LoadedDocuments:                kitprometheus.NewCounter(in.LoadedDocuments),
		CapacityUnitConsumedCount:      kitprometheus.NewCounter(in.CapacityUnitConsumedCount),
		ReadCapacityUnitConsumedCount:  kitprometheus.NewCounter(in.ReadCapacityUnitConsumedCount),
		WriteCapacityUnitConsumedCount: kitprometheus.NewCounter(in.WriteCapacityUnitConsumedCount),
	}
}
