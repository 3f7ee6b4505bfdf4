// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// DaySummary holds the counters for a single Singapore calendar day.
type DaySummary struct {
	Date         string `json:"date"`
	CaptureCount int    `json:"capture_count"`
	ImageCount   int    `json:"image_count"`
}

// DayLedger is the durable form of a day. Captures lists the HH-MM-SS of every
// cycle folded into the day, which is what makes aggregation idempotent.
type DayLedger struct {
	DaySummary
	Captures []string `json:"captures"`
}

// GlobalSummary is the single derived document persisted as summary.json.
type GlobalSummary struct {
	LastUpdated        time.Time    `json:"last_updated"`
	TotalDaysMonitored int          `json:"total_days_monitored"`
	TotalCaptures      int          `json:"total_captures"`
	TotalImages        int          `json:"total_images"`
	Recent             []DaySummary `json:"recent"`

	// Days covers the whole archive in ascending date order and is the source
	// of truth for the totals. Recent is only a display window over it.
	Days []DayLedger `json:"days"`

	// Version is bumped on every committed aggregation.
	Version int64 `json:"version"`
}

// Clone returns a deep copy so that callers never share slices with a
// committed document.
func (g GlobalSummary) Clone() GlobalSummary {
	c := g
	if g.Recent != nil {
		c.Recent = append([]DaySummary(nil), g.Recent...)
	}
	if g.Days != nil {
		c.Days = make([]DayLedger, len(g.Days))
		for i, d := range g.Days {
			c.Days[i] = d
			c.Days[i].Captures = append([]string(nil), d.Captures...)
		}
	}
	return c
}

// Day finds the ledger entry for date.
func (g GlobalSummary) Day(date string) (DayLedger, bool) {
	for _, d := range g.Days {
		if d.Date == date {
			return d, true
		}
	}
	return DayLedger{}, false
}
