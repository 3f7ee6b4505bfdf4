// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/causeway/model"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)
	r := Default()

	assert.Equal(5, r.Len())
	ids := []int{}
	for _, c := range r.List() {
		ids = append(ids, c.ID)
	}
	assert.Equal([]int{2701, 2702, 4703, 4713, 4714}, ids)
	assert.Len(r.ByCheckpoint(model.Tuas), 3)
	assert.Len(r.ByCheckpoint(model.Woodlands), 2)

	c, ok := r.Get(4703)
	assert.True(ok)
	assert.Equal(model.Tuas, c.Checkpoint)

	_, ok = r.Get(1)
	assert.False(ok)
}

func TestListIsCopy(t *testing.T) {
	assert := assert.New(t)
	r := Default()
	l := r.List()
	l[0].ID = 99
	assert.Equal(2701, r.List()[0].ID)
}

func TestNew(t *testing.T) {
	tcs := []struct {
		Description string
		Specs       []model.CameraSpec
		ExpectedErr error
	}{
		{
			Description: "Empty",
			ExpectedErr: ErrNoCameras,
		},
		{
			Description: "Duplicate id",
			Specs: []model.CameraSpec{
				{ID: 1, Checkpoint: model.Tuas, Label: "a"},
				{ID: 1, Checkpoint: model.Woodlands, Label: "b"},
			},
			ExpectedErr: ErrDuplicateID,
		},
		{
			Description: "Unknown checkpoint",
			Specs: []model.CameraSpec{
				{ID: 1, Checkpoint: "Changi", Label: "a"},
			},
			ExpectedErr: ErrInvalidSpec,
		},
		{
			Description: "Missing label",
			Specs: []model.CameraSpec{
				{ID: 1, Checkpoint: model.Tuas},
			},
			ExpectedErr: ErrInvalidSpec,
		},
		{
			Description: "Non-positive id",
			Specs: []model.CameraSpec{
				{ID: 0, Checkpoint: model.Tuas, Label: "a"},
			},
			ExpectedErr: ErrInvalidSpec,
		},
		{
			Description: "Bad url",
			Specs: []model.CameraSpec{
				{ID: 1, Checkpoint: model.Tuas, Label: "a", URL: "not a url"},
			},
			ExpectedErr: ErrInvalidSpec,
		},
		{
			Description: "Valid",
			Specs: []model.CameraSpec{
				{ID: 9, Checkpoint: model.Tuas, Label: "a", URL: "http://example.com/9.jpg"},
				{ID: 3, Checkpoint: model.Woodlands, Label: "b"},
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			r, err := New(tc.Specs)
			if tc.ExpectedErr != nil {
				assert.ErrorIs(err, tc.ExpectedErr)
				assert.Nil(r)
				return
			}
			require.NoError(err)
			assert.Equal(tc.Specs, r.List())
		})
	}
}
