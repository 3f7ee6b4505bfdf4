// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/model"
	"go.uber.org/zap"
)

func TestRecords(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	fs := afero.NewMemMapFs()
	w := newTestWriter(t, fs)

	at := cycleTime(t)
	for _, offset := range []time.Duration{48 * time.Hour, 0, time.Hour} {
		_, err := w.Write(context.Background(), at.Add(offset), []model.CaptureAttempt{success(4703), failure(4713)})
		require.NoError(err)
	}

	require.NoError(afero.WriteFile(fs, "2026-01-23/metadata_2026-01-23_09-00-00.json", []byte("{not json"), 0o644))
	require.NoError(afero.WriteFile(fs, "2026-01-23/metadata_2026-01-23_10-00-00.json", []byte(`{"date":"","time":""}`), 0o644))
	require.NoError(afero.WriteFile(fs, "2026-01-23/.metadata_2026-01-23_11-00-00.json.tmp-1", []byte(`{}`), 0o644))
	require.NoError(afero.WriteFile(fs, "summary.json", []byte(`{}`), 0o644))

	r, err := NewReader(fs, func(context.Context) *zap.Logger { return zap.NewNop() })
	require.NoError(err)

	records, err := r.Records(context.Background())
	require.NoError(err)
	require.Len(records, 3)
	assert.Equal("2026-01-23_05-30-45", records[0].Key())
	assert.Equal("2026-01-23_06-30-45", records[1].Key())
	assert.Equal("2026-01-25_05-30-45", records[2].Key())
	assert.Len(records[0].Images, 1)
	assert.Len(records[0].Metadata, 2)
}

func TestRecordsEmptyArchive(t *testing.T) {
	assert := assert.New(t)
	r, err := NewReader(afero.NewMemMapFs(), nil)
	assert.NoError(err)
	records, err := r.Records(context.Background())
	assert.NoError(err)
	assert.Empty(records)
}

func TestRecordsCancelled(t *testing.T) {
	assert := assert.New(t)
	fs := afero.NewMemMapFs()
	_, err := newTestWriter(t, fs).Write(context.Background(), cycleTime(t), []model.CaptureAttempt{success(4703)})
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := NewReader(fs, nil)
	_, err = r.Records(ctx)
	assert.ErrorIs(err, context.Canceled)
}

func TestNewFs(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	base := afero.NewMemMapFs()

	fs, err := NewFs(Config{}, base, zap.NewNop())
	require.NoError(err)
	require.NoError(afero.WriteFile(fs, "summary.json", []byte("{}"), 0o644))

	ok, err := afero.Exists(base, "traffic_images/summary.json")
	assert.NoError(err)
	assert.True(ok)
}
