// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	FileCounter  = "archive_files_total"
	BytesCounter = "archive_bytes_written_total"
)

// Labels
const (
	KindLabel    = "kind"
	OutcomeLabel = "outcome"
)

// Label Values
const (
	ImageKind      = "image"
	MetadataKind   = "metadata"
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: FileCounter,
				Help: "Counter for archive file writes by kind and outcome.",
			},
			KindLabel, OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: BytesCounter,
				Help: "Bytes committed to the archive by kind.",
			},
			KindLabel,
		),
	)
}

type Measures struct {
	fx.In
	Files *prometheus.CounterVec `name:"archive_files_total"`
	Bytes *prometheus.CounterVec `name:"archive_bytes_written_total"`
}

func (m *Measures) written(kind string, n int, err error) {
	outcome := SuccessOutcome
	if err != nil {
		outcome = FailureOutcome
	}
	m.Files.With(prometheus.Labels{KindLabel: kind, OutcomeLabel: outcome}).Inc()
	if err == nil {
		m.Bytes.With(prometheus.Labels{KindLabel: kind}).Add(float64(n))
	}
}
