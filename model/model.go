// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"time"
)

// Checkpoint is one of the monitored land-border crossings.
type Checkpoint string

const (
	Tuas      Checkpoint = "Tuas"
	Woodlands Checkpoint = "Woodlands"
)

// CameraSpec describes a single registered traffic camera.
type CameraSpec struct {
	// ID is the camera identifier used by the upstream image source.
	ID int `json:"id" mapstructure:"id" validate:"required,gt=0"`

	// Checkpoint groups the camera under one of the crossings.
	Checkpoint Checkpoint `json:"checkpoint" mapstructure:"checkpoint" validate:"required,oneof=Tuas Woodlands"`

	// Label is the human readable camera location.
	Label string `json:"label" mapstructure:"label" validate:"required"`

	// URL optionally pins the image endpoint for this camera.
	// (Optional) When empty the configured resolver decides.
	URL string `json:"url,omitempty" mapstructure:"url" validate:"omitempty,url"`
}

// FailureReason classifies why a camera contributed no image to a cycle.
type FailureReason string

const (
	ReasonTimeout       FailureReason = "timeout"
	ReasonHTTPError     FailureReason = "http_error"
	ReasonNetworkError  FailureReason = "network_error"
	ReasonEmptyResponse FailureReason = "empty_response"
	ReasonNotImage      FailureReason = "not_image"
	ReasonWriteFailed   FailureReason = "write_failed"
)

// Failure is the terminal, per-camera failure of a cycle. It is a normal
// value, not a fault.
type Failure struct {
	Reason     FailureReason `json:"reason"`
	StatusCode int           `json:"statusCode,omitempty"`
	Message    string        `json:"message,omitempty"`
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", f.Reason, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// CaptureAttempt is the ephemeral result of fetching one camera during one cycle.
type CaptureAttempt struct {
	CameraID    int
	Timestamp   time.Time
	Image       []byte
	ContentType string
	Attempts    int
	Source      string
	Location    string
	Latitude    float64
	Longitude   float64

	// Failure is nil when the attempt succeeded.
	Failure *Failure
}

// Succeeded reports whether the attempt produced an image.
func (a CaptureAttempt) Succeeded() bool {
	return a.Failure == nil
}

// Fetch statuses recorded in capture metadata.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ImageRef points at an image file stored in a date partition.
type ImageRef struct {
	CameraID int    `json:"camera_id"`
	Filename string `json:"filename"`
}

// CameraMetadata is the per-camera trace kept in a capture record, whether or
// not the camera produced an image.
type CameraMetadata struct {
	Label       string        `json:"label"`
	Checkpoint  Checkpoint    `json:"checkpoint"`
	FetchedAt   time.Time     `json:"fetched_at"`
	Status      string        `json:"status"`
	Reason      FailureReason `json:"reason,omitempty"`
	StatusCode  int           `json:"status_code,omitempty"`
	Message     string        `json:"message,omitempty"`
	ContentType string        `json:"content_type,omitempty"`
	Bytes       int           `json:"bytes,omitempty"`
	Attempts    int           `json:"attempts"`
	Source      string        `json:"source,omitempty"`
	Location    string        `json:"location,omitempty"`
	Latitude    float64       `json:"latitude,omitempty"`
	Longitude   float64       `json:"longitude,omitempty"`
}

// CaptureRecord is the durable unit written once per cycle. Images only ever
// references files that were completely written.
type CaptureRecord struct {
	Timestamp time.Time              `json:"timestamp"`
	Date      string                 `json:"date"`
	Time      string                 `json:"time"`
	Images    []ImageRef             `json:"images"`
	Metadata  map[int]CameraMetadata `json:"metadata"`
}

// Key uniquely identifies the cycle that produced the record.
func (r CaptureRecord) Key() string {
	return r.Date + "_" + r.Time
}
