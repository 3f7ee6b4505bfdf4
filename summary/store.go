// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"context"
	"errors"

	"github.com/xmidt-org/causeway/model"
)

const (
	// TypeLabel is for labeling backend metrics; if there is a single metric for
	// successful queries, the typeLabel and corresponding type can be used
	// when incrementing the metric.
	TypeLabel = "type"
	ReadType  = "read"
	WriteType = "write"
	PingType  = "ping"
)

// Errors returned by backends and the aggregator. Check them with errors.Is.
var (
	ErrNotFound        = errors.New("no summary document stored")
	ErrCorrupt         = errors.New("stored summary document is malformed")
	ErrVersionConflict = errors.New("summary document was modified concurrently")
	ErrInvalidRecord   = errors.New("capture record cannot be aggregated")
	ErrNilStore        = errors.New("summary store cannot be nil")
	ErrNilMeasures     = errors.New("measures cannot be nil")
	ErrNoReplayer      = errors.New("no archive replayer configured")
)

// S is a durable home for the single summary document.
//
// Load returns ErrNotFound when nothing was ever saved, and ErrCorrupt when a
// document exists but cannot be decoded. With ErrCorrupt the returned
// document carries the stored version when the backend could still read it.
//
// Save replaces the document only if the stored version is doc.Version-1
// (a missing document counts as version 0), otherwise it returns
// ErrVersionConflict. The replacement is atomic: readers never observe a
// partially written document.
type S interface {
	Load(ctx context.Context) (model.GlobalSummary, error)
	Save(ctx context.Context, doc model.GlobalSummary) error
}

// Mirror receives every committed document, for example to keep summary.json
// on disk while a database is the primary store.
type Mirror interface {
	Export(ctx context.Context, doc model.GlobalSummary) error
}

// Replayer yields every capture record in the archive.
type Replayer interface {
	Records(ctx context.Context) ([]model.CaptureRecord, error)
}
