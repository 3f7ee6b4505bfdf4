// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package summarytest holds the behavior every summary backend shares.
package summarytest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
)

// Document returns a small valid summary at version.
func Document(version int64) model.GlobalSummary {
	days := []model.DayLedger{
		{
			DaySummary: model.DaySummary{Date: "2026-01-22", CaptureCount: 2, ImageCount: 9},
			Captures:   []string{"05-30-45", "06-00-00"},
		},
		{
			DaySummary: model.DaySummary{Date: "2026-01-23", CaptureCount: 1, ImageCount: 3},
			Captures:   []string{"05-30-45"},
		},
	}
	return model.GlobalSummary{
		LastUpdated:        time.Date(2026, 1, 23, 5, 31, 0, 0, model.Singapore),
		TotalDaysMonitored: 2,
		TotalCaptures:      3,
		TotalImages:        12,
		Recent:             []model.DaySummary{days[1].DaySummary, days[0].DaySummary},
		Days:               days,
		Version:            version,
	}
}

// AssertSame compares documents field by field, with time compared as an
// instant so backends may hand back a different location.
func AssertSame(t *testing.T, expected, actual model.GlobalSummary) {
	t.Helper()
	assert := assert.New(t)
	assert.True(expected.LastUpdated.Equal(actual.LastUpdated), "last updated %v != %v", expected.LastUpdated, actual.LastUpdated)
	assert.Equal(expected.TotalDaysMonitored, actual.TotalDaysMonitored)
	assert.Equal(expected.TotalCaptures, actual.TotalCaptures)
	assert.Equal(expected.TotalImages, actual.TotalImages)
	assert.Equal(expected.Recent, actual.Recent)
	assert.Equal(expected.Days, actual.Days)
	assert.Equal(expected.Version, actual.Version)
}

// StoreTest runs the load and conditional save contract against s, which
// must start out empty.
func StoreTest(t *testing.T, s summary.S) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	t.Log("Empty store")
	_, err := s.Load(ctx)
	assert.ErrorIs(err, summary.ErrNotFound)

	t.Log("First save must be version 1")
	assert.ErrorIs(s.Save(ctx, Document(2)), summary.ErrVersionConflict)
	require.NoError(s.Save(ctx, Document(1)))
	doc, err := s.Load(ctx)
	require.NoError(err)
	AssertSame(t, Document(1), doc)

	t.Log("Stale save")
	assert.ErrorIs(s.Save(ctx, Document(1)), summary.ErrVersionConflict)

	t.Log("Next save")
	next := Document(2)
	next.TotalCaptures = 4
	require.NoError(s.Save(ctx, next))
	doc, err = s.Load(ctx)
	require.NoError(err)
	AssertSame(t, next, doc)

	t.Log("Skipping ahead")
	assert.ErrorIs(s.Save(ctx, Document(5)), summary.ErrVersionConflict)
	doc, err = s.Load(ctx)
	require.NoError(err)
	assert.Equal(int64(2), doc.Version)
}
