// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/xmidt-org/causeway/model"
)

var (
	ErrNoCameras   = errors.New("at least one camera must be registered")
	ErrDuplicateID = errors.New("camera id registered more than once")
	ErrInvalidSpec = errors.New("invalid camera specification")
)

// Registry is the fixed, ordered table of cameras monitored by every cycle.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	cameras []model.CameraSpec
	index   map[int]int
}

// Default returns the built-in camera table.
func Default() *Registry {
	r, err := New(defaultCameras)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultCameras = []model.CameraSpec{
	{ID: 2701, Checkpoint: model.Woodlands, Label: "Woodlands Causeway (Towards Johor)"},
	{ID: 2702, Checkpoint: model.Woodlands, Label: "Woodlands Checkpoint"},
	{ID: 4703, Checkpoint: model.Tuas, Label: "Tuas Second Link"},
	{ID: 4713, Checkpoint: model.Tuas, Label: "Tuas Checkpoint"},
	{ID: 4714, Checkpoint: model.Tuas, Label: "AYE (Towards Tuas Checkpoint)"},
}

// New validates specs and builds a registry that preserves their order.
func New(specs []model.CameraSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, ErrNoCameras
	}

	v := validator.New()
	r := &Registry{
		cameras: make([]model.CameraSpec, 0, len(specs)),
		index:   make(map[int]int, len(specs)),
	}
	for _, s := range specs {
		if err := v.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: camera %d: %v", ErrInvalidSpec, s.ID, err)
		}
		if _, ok := r.index[s.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, s.ID)
		}
		r.index[s.ID] = len(r.cameras)
		r.cameras = append(r.cameras, s)
	}
	return r, nil
}

// List returns the cameras in registration order. The slice is a copy.
func (r *Registry) List() []model.CameraSpec {
	return append([]model.CameraSpec(nil), r.cameras...)
}

// Get looks a camera up by id.
func (r *Registry) Get(id int) (model.CameraSpec, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.CameraSpec{}, false
	}
	return r.cameras[i], true
}

// Len is the number of registered cameras.
func (r *Registry) Len() int {
	return len(r.cameras)
}

// ByCheckpoint returns the cameras of a single checkpoint in registration order.
func (r *Registry) ByCheckpoint(cp model.Checkpoint) []model.CameraSpec {
	var out []model.CameraSpec
	for _, c := range r.cameras {
		if c.Checkpoint == cp {
			out = append(out, c)
		}
	}
	return out
}
