// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const metadataGlob = "metadata_*.json"

// Reader replays the capture records stored in an archive.
type Reader struct {
	fs        afero.Fs
	getLogger func(context.Context) *zap.Logger
}

func NewReader(fs afero.Fs, getLogger func(context.Context) *zap.Logger) (*Reader, error) {
	if fs == nil {
		return nil, ErrNilFs
	}
	if getLogger == nil {
		getLogger = sallust.Get
	}
	return &Reader{fs: fs, getLogger: getLogger}, nil
}

// Records decodes every metadata file in every date partition, in path order.
// Files that cannot be read or decoded are logged and skipped, since a lost
// capture record cannot be reconstructed.
func (r *Reader) Records(ctx context.Context) ([]model.CaptureRecord, error) {
	logger := r.getLogger(ctx)
	matches, err := afero.Glob(r.fs, filepath.Join("*", metadataGlob))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	records := make([]model.CaptureRecord, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			logger.Warn("skipping unreadable capture record", zap.String("path", path), zap.Error(err))
			continue
		}

		var record model.CaptureRecord
		if err := json.Unmarshal(data, &record); err != nil {
			logger.Warn("skipping malformed capture record", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, err := model.ParseStamp(record.Date, record.Time); err != nil {
			logger.Warn("skipping capture record without a valid date and time", zap.String("path", path), zap.Error(err))
			continue
		}
		if record.Images == nil {
			record.Images = []model.ImageRef{}
		}
		records = append(records, record)
	}
	return records, nil
}
