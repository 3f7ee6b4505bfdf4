// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package file keeps the summary document as summary.json at the archive root.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/xmidt-org/causeway/archive"
	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
)

const (
	// Filename is the name of the summary document at the archive root.
	Filename = "summary.json"

	filePerm = 0o644
)

var errNilFs = errors.New("filesystem cannot be nil")

// Store is a summary backend on a filesystem. Saves are serialized within the
// process and replace the file atomically.
type Store struct {
	fs   afero.Fs
	name string
	lock sync.Mutex
}

func NewStore(fs afero.Fs) (*Store, error) {
	if fs == nil {
		return nil, errNilFs
	}
	return &Store{fs: fs, name: Filename}, nil
}

func (s *Store) Load(_ context.Context) (model.GlobalSummary, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.load()
}

// Save writes doc if the version on disk is doc.Version-1. A file that cannot
// be decoded at all does not block the save, so a rebuild can replace it.
func (s *Store) Save(_ context.Context, doc model.GlobalSummary) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.load()
	switch {
	case err == nil, errors.Is(err, summary.ErrNotFound):
	case errors.Is(err, summary.ErrCorrupt):
		if current.Version == 0 {
			return s.write(doc)
		}
	default:
		return err
	}
	if doc.Version != current.Version+1 {
		return fmt.Errorf("%w: %s is at version %d, saving version %d", summary.ErrVersionConflict, s.name, current.Version, doc.Version)
	}
	return s.write(doc)
}

// Export writes doc unconditionally. It serves as the mirror of a database
// backed summary.
func (s *Store) Export(_ context.Context, doc model.GlobalSummary) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.write(doc)
}

func (s *Store) load() (model.GlobalSummary, error) {
	data, err := afero.ReadFile(s.fs, s.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.GlobalSummary{}, summary.ErrNotFound
		}
		return model.GlobalSummary{}, err
	}

	var doc model.GlobalSummary
	if err := json.Unmarshal(data, &doc); err != nil {
		var versioned struct {
			Version int64 `json:"version"`
		}
		_ = json.Unmarshal(data, &versioned)
		return model.GlobalSummary{Version: versioned.Version}, fmt.Errorf("%w: %v", summary.ErrCorrupt, err)
	}
	return doc, nil
}

func (s *Store) write(doc model.GlobalSummary) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return archive.WriteFileAtomic(s.fs, s.name, data, filePerm)
}
