// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"fmt"
	"sort"
	"time"

	"github.com/xmidt-org/causeway/model"
	"go.uber.org/multierr"
)

// Fold applies one capture record to doc and returns the new document.
//
// Records are identified by their date and time: a record already present in
// the day's ledger leaves the document untouched and changed is false. Totals
// are recomputed from every day and Recent is rebuilt by sorting, so records
// may arrive in any order. doc is never modified. Version is not changed.
//
// cameraCount bounds the number of images a record may carry. A record with
// more images, duplicate camera ids or a bad date or time returns
// ErrInvalidRecord.
func Fold(doc model.GlobalSummary, record model.CaptureRecord, window, cameraCount int, now time.Time) (model.GlobalSummary, bool, error) {
	if err := validateRecord(record, cameraCount); err != nil {
		return doc, false, err
	}

	out := doc.Clone()
	normalize(&out)

	i := sort.Search(len(out.Days), func(i int) bool {
		return out.Days[i].Date >= record.Date
	})
	if i < len(out.Days) && out.Days[i].Date == record.Date && hasCapture(out.Days[i].Captures, record.Time) {
		return doc, false, nil
	}

	if i == len(out.Days) || out.Days[i].Date != record.Date {
		out.Days = append(out.Days, model.DayLedger{})
		copy(out.Days[i+1:], out.Days[i:])
		out.Days[i] = model.DayLedger{
			DaySummary: model.DaySummary{Date: record.Date},
			Captures:   []string{},
		}
	}

	day := &out.Days[i]
	day.Captures = insertCapture(day.Captures, record.Time)
	day.CaptureCount = len(day.Captures)
	day.ImageCount += len(record.Images)

	out.LastUpdated = now.In(model.Singapore)
	recompute(&out, window)
	return out, true, nil
}

// Replay folds records into an empty document. Invalid records are skipped
// and returned together as err.
func Replay(records []model.CaptureRecord, window, cameraCount int, now time.Time) (doc model.GlobalSummary, err error) {
	doc = model.GlobalSummary{Days: []model.DayLedger{}}
	for _, r := range records {
		next, _, ferr := Fold(doc, r, window, cameraCount, now)
		if ferr != nil {
			err = multierr.Append(err, ferr)
			continue
		}
		doc = next
	}
	doc.LastUpdated = now.In(model.Singapore)
	recompute(&doc, window)
	return doc, err
}

// recompute derives every total and the recent window from Days.
func recompute(doc *model.GlobalSummary, window int) {
	doc.TotalDaysMonitored = len(doc.Days)
	doc.TotalCaptures = 0
	doc.TotalImages = 0
	for _, d := range doc.Days {
		doc.TotalCaptures += d.CaptureCount
		doc.TotalImages += d.ImageCount
	}

	n := len(doc.Days)
	if window >= 0 && n > window {
		n = window
	}
	doc.Recent = make([]model.DaySummary, 0, n)
	for i := len(doc.Days) - 1; i >= 0 && len(doc.Recent) < n; i-- {
		doc.Recent = append(doc.Recent, doc.Days[i].DaySummary)
	}
}

// normalize sorts days by date and each day's captures, the order Fold
// searches in.
func normalize(doc *model.GlobalSummary) {
	sort.SliceStable(doc.Days, func(i, j int) bool {
		return doc.Days[i].Date < doc.Days[j].Date
	})
	for i := range doc.Days {
		if doc.Days[i].Captures == nil {
			doc.Days[i].Captures = []string{}
		}
		sort.Strings(doc.Days[i].Captures)
	}
}

func validateRecord(record model.CaptureRecord, cameraCount int) error {
	if _, err := model.ParseStamp(record.Date, record.Time); err != nil {
		return fmt.Errorf("%w: bad date or time %q %q", ErrInvalidRecord, record.Date, record.Time)
	}
	if cameraCount > 0 && len(record.Images) > cameraCount {
		return fmt.Errorf("%w: %s has %d images for %d cameras", ErrInvalidRecord, record.Key(), len(record.Images), cameraCount)
	}
	seen := make(map[int]struct{}, len(record.Images))
	for _, img := range record.Images {
		if _, ok := seen[img.CameraID]; ok {
			return fmt.Errorf("%w: %s lists camera %d twice", ErrInvalidRecord, record.Key(), img.CameraID)
		}
		seen[img.CameraID] = struct{}{}
	}
	return nil
}

func hasCapture(captures []string, clock string) bool {
	i := sort.SearchStrings(captures, clock)
	return i < len(captures) && captures[i] == clock
}

func insertCapture(captures []string, clock string) []string {
	i := sort.SearchStrings(captures, clock)
	captures = append(captures, "")
	copy(captures[i+1:], captures[i:])
	captures[i] = clock
	return captures
}
