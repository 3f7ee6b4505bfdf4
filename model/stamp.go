// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"path/filepath"
	"time"
)

// Singapore is the civil time zone every partition and filename is derived in.
// Singapore has observed UTC+8 without daylight saving since 1982.
var Singapore = time.FixedZone("SGT", 8*60*60)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15-04-05"
)

// Stamp is the single conversion of a cycle timestamp into Singapore civil
// time. All names for a cycle come from one Stamp so that a cycle can never
// straddle two partitions.
type Stamp struct {
	Time  time.Time
	Date  string
	Clock string
}

// StampOf converts t to Singapore civil time.
func StampOf(t time.Time) Stamp {
	sg := t.In(Singapore)
	return Stamp{
		Time:  sg,
		Date:  sg.Format(DateLayout),
		Clock: sg.Format(TimeLayout),
	}
}

// Key matches CaptureRecord.Key for records produced from this stamp.
func (s Stamp) Key() string {
	return s.Date + "_" + s.Clock
}

// ImageFilename is camera_<id>_<date>_<time>.jpg.
func ImageFilename(cameraID int, s Stamp) string {
	return fmt.Sprintf("camera_%d_%s_%s.jpg", cameraID, s.Date, s.Clock)
}

// MetadataFilename is metadata_<date>_<time>.json.
func MetadataFilename(s Stamp) string {
	return fmt.Sprintf("metadata_%s_%s.json", s.Date, s.Clock)
}

// ImagePath is the image location relative to the archive root.
func ImagePath(cameraID int, s Stamp) string {
	return filepath.Join(s.Date, ImageFilename(cameraID, s))
}

// MetadataPath is the metadata location relative to the archive root.
func MetadataPath(s Stamp) string {
	return filepath.Join(s.Date, MetadataFilename(s))
}

// ParseStamp rebuilds a stamp from a stored date and time pair.
func ParseStamp(date, clock string) (Stamp, error) {
	t, err := time.ParseInLocation(DateLayout+"T"+TimeLayout, date+"T"+clock, Singapore)
	if err != nil {
		return Stamp{}, err
	}
	return StampOf(t), nil
}
