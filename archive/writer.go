// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/registry"
	"github.com/xmidt-org/sallust"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrWriteFailed   = errors.New("failed writing capture record")
	ErrCycleExists   = errors.New("a capture record already exists for this cycle")
	ErrDiscardFailed = errors.New("failed discarding capture record")
	ErrNilFs         = errors.New("filesystem cannot be nil")
	ErrNilRegistry   = errors.New("registry cannot be nil")
	ErrNilMeasures   = errors.New("measures cannot be nil")
)

const (
	dirPerm           = 0o755
	filePerm          = 0o644
	errWrappedFmt     = "%w: %s"
	errWrappedPathFmt = "%w: %s: %v"
)

// Writer persists the artifacts of one cycle into its date partition.
type Writer struct {
	fs        afero.Fs
	registry  *registry.Registry
	measures  *Measures
	getLogger func(context.Context) *zap.Logger
}

// NewWriter creates a Writer rooted at fs.
func NewWriter(fs afero.Fs, reg *registry.Registry, measures *Measures, getLogger func(context.Context) *zap.Logger) (*Writer, error) {
	if fs == nil {
		return nil, ErrNilFs
	}
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}
	return &Writer{
		fs:        fs,
		registry:  reg,
		measures:  measures,
		getLogger: getLogger,
	}, nil
}

// Write stores the images of successful attempts in registry order, then the
// metadata record. An image is only referenced once it is completely on disk.
// A failed image write marks that camera write_failed and the cycle goes on.
// A failed metadata write removes this call's images and returns
// ErrWriteFailed, leaving the partition as it was.
func (w *Writer) Write(ctx context.Context, cycleTime time.Time, attempts []model.CaptureAttempt) (model.CaptureRecord, error) {
	stamp := model.StampOf(cycleTime)
	logger := w.getLogger(ctx).With(zap.String("cycle", stamp.Key()))
	metadataPath := model.MetadataPath(stamp)

	exists, err := afero.Exists(w.fs, metadataPath)
	if err != nil {
		return model.CaptureRecord{}, fmt.Errorf(errWrappedPathFmt, ErrWriteFailed, metadataPath, err)
	}
	if exists {
		return model.CaptureRecord{}, fmt.Errorf(errWrappedFmt, ErrCycleExists, stamp.Key())
	}

	if err := w.fs.MkdirAll(stamp.Date, dirPerm); err != nil {
		return model.CaptureRecord{}, fmt.Errorf(errWrappedPathFmt, ErrWriteFailed, stamp.Date, err)
	}

	byCamera := make(map[int]model.CaptureAttempt, len(attempts))
	for _, a := range attempts {
		if _, ok := w.registry.Get(a.CameraID); !ok {
			logger.Warn("ignoring attempt for unregistered camera", zap.Int("camera", a.CameraID))
			continue
		}
		byCamera[a.CameraID] = a
	}

	record := model.CaptureRecord{
		Timestamp: stamp.Time,
		Date:      stamp.Date,
		Time:      stamp.Clock,
		Images:    []model.ImageRef{},
		Metadata:  make(map[int]model.CameraMetadata, len(byCamera)),
	}

	var written []string
	for _, camera := range w.registry.List() {
		a, ok := byCamera[camera.ID]
		if !ok {
			continue
		}

		meta := model.CameraMetadata{
			Label:      camera.Label,
			Checkpoint: camera.Checkpoint,
			FetchedAt:  a.Timestamp.In(model.Singapore),
			Attempts:   a.Attempts,
			Source:     a.Source,
			Location:   a.Location,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
		}

		if a.Failure != nil {
			meta.Status = model.StatusFailed
			meta.Reason = a.Failure.Reason
			meta.StatusCode = a.Failure.StatusCode
			meta.Message = a.Failure.Message
			record.Metadata[camera.ID] = meta
			continue
		}

		path := model.ImagePath(camera.ID, stamp)
		err := WriteFileAtomic(w.fs, path, a.Image, filePerm)
		w.measures.written(ImageKind, len(a.Image), err)
		if err != nil {
			logger.Error("failed writing camera image", zap.Int("camera", camera.ID), zap.String("path", path), zap.Error(err))
			meta.Status = model.StatusFailed
			meta.Reason = model.ReasonWriteFailed
			meta.Message = err.Error()
			record.Metadata[camera.ID] = meta
			continue
		}

		written = append(written, path)
		record.Images = append(record.Images, model.ImageRef{
			CameraID: camera.ID,
			Filename: model.ImageFilename(camera.ID, stamp),
		})
		meta.Status = model.StatusOK
		meta.ContentType = a.ContentType
		meta.Bytes = len(a.Image)
		record.Metadata[camera.ID] = meta
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err == nil {
		err = WriteFileAtomic(w.fs, metadataPath, data, filePerm)
	}
	w.measures.written(MetadataKind, len(data), err)
	if err != nil {
		var rollback error
		for _, p := range written {
			rollback = multierr.Append(rollback, w.fs.Remove(p))
		}
		logger.Error("failed writing capture metadata, images rolled back",
			zap.String("path", metadataPath), zap.Error(err), zap.NamedError("rollback", rollback))
		return model.CaptureRecord{}, fmt.Errorf(errWrappedPathFmt, ErrWriteFailed, metadataPath, err)
	}

	logger.Info("capture record written",
		zap.Int("images", len(record.Images)), zap.Int("cameras", len(record.Metadata)))
	return record, nil
}

// Discard removes the metadata and images of a record returned by Write. The
// metadata goes first, so a partial failure leaves at most unreferenced
// images behind and the cycle can be written again.
func (w *Writer) Discard(ctx context.Context, record model.CaptureRecord) error {
	stamp := model.StampOf(record.Timestamp)
	logger := w.getLogger(ctx).With(zap.String("cycle", stamp.Key()))

	metadataPath := model.MetadataPath(stamp)
	if err := w.fs.Remove(metadataPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf(errWrappedPathFmt, ErrDiscardFailed, metadataPath, err)
	}

	var err error
	for _, img := range record.Images {
		path := model.ImagePath(img.CameraID, stamp)
		if rmErr := w.fs.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}
	if err != nil {
		logger.Warn("capture record discarded, some images remain", zap.Error(err))
		return nil
	}
	logger.Info("capture record discarded", zap.Int("images", len(record.Images)))
	return nil
}
