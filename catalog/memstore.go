// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"
	"sync"

	"github.com/google/btree"
	"go.uber.org/atomic"

	"github.com/pingcap/granite/pkg/apperror"
)

const defaultDegree = 16

// MemStore is a Store backed by an in-memory btree, used by tests and by
// embedders that keep the catalog resident. A scan materializes its result
// under the read lock so iteration never observes torn rows; the production
// store keeps scans lazy end to end.
type MemStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[Cell]

	unavailable atomic.Bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		tree: btree.NewG(defaultDegree, lessCell),
	}
}

// SetUnavailable makes every subsequent call fail with
// ErrCatalogUnavailable, simulating connectivity loss.
func (s *MemStore) SetUnavailable(v bool) {
	s.unavailable.Store(v)
}

func (s *MemStore) Scan(ctx context.Context, rng Range, families ...string) (Iterator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.unavailable.Load() {
		return nil, apperror.ErrCatalogUnavailable.GenWithStackByArgs()
	}

	var wanted map[string]struct{}
	if len(families) > 0 {
		wanted = make(map[string]struct{}, len(families))
		for _, f := range families {
			wanted[f] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var cells []Cell
	s.tree.AscendGreaterOrEqual(Cell{Row: rng.Start}, func(c Cell) bool {
		if !rng.contains(c.Row) {
			// rows ascend, the first miss is past the range end
			return false
		}
		if wanted != nil {
			if _, ok := wanted[c.Family]; !ok {
				return true
			}
		}
		cells = append(cells, c)
		return true
	})
	return &sliceIterator{cells: cells}, nil
}

func (s *MemStore) Put(ctx context.Context, cells ...Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.unavailable.Load() {
		return apperror.ErrCatalogUnavailable.GenWithStackByArgs()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		c.Value = append([]byte(nil), c.Value...)
		s.tree.ReplaceOrInsert(c)
	}
	return nil
}

func (s *MemStore) Delete(ctx context.Context, cells ...Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.unavailable.Load() {
		return apperror.ErrCatalogUnavailable.GenWithStackByArgs()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		s.tree.Delete(c)
	}
	return nil
}

// Len returns the number of cells currently stored.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

type sliceIterator struct {
	cells  []Cell
	next   int
	closed bool
}

func (it *sliceIterator) Next(ctx context.Context) (*Cell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.closed {
		return nil, apperror.ErrIteratorClosed.GenWithStackByArgs()
	}
	if it.next >= len(it.cells) {
		return nil, nil
	}
	c := &it.cells[it.next]
	it.next++
	return c, nil
}

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}
