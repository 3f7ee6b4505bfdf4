// SPDX-FileCopyrightText: 2026 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/xmidt-org/causeway/model"
	"github.com/xmidt-org/causeway/summary"
)

type InMem struct {
	doc    *model.GlobalSummary
	lock   sync.Mutex
	writes int
}

func NewInMem() *InMem {
	return &InMem{}
}

func (i *InMem) Load(_ context.Context) (model.GlobalSummary, error) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.doc == nil {
		return model.GlobalSummary{}, summary.ErrNotFound
	}
	return i.doc.Clone(), nil
}

func (i *InMem) Save(_ context.Context, doc model.GlobalSummary) error {
	i.lock.Lock()
	defer i.lock.Unlock()
	var stored int64
	if i.doc != nil {
		stored = i.doc.Version
	}
	if doc.Version != stored+1 {
		return fmt.Errorf("%w: stored version %d, saving version %d", summary.ErrVersionConflict, stored, doc.Version)
	}
	clone := doc.Clone()
	i.doc = &clone
	i.writes++
	return nil
}

// Writes returns the number of successful saves.
func (i *InMem) Writes() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.writes
}
