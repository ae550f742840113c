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

import "context"

// Row is all scanned cells of one row key, in family/qualifier order.
type Row struct {
	Key   string
	Cells []Cell
}

// RowIterator groups a cell iterator into whole rows. It buffers at most
// one row at a time, the underlying scan stays lazy.
type RowIterator struct {
	it      Iterator
	pending *Cell
	done    bool
}

func NewRowIterator(it Iterator) *RowIterator {
	return &RowIterator{it: it}
}

// Next returns the next row, or nil when the scan is exhausted.
func (r *RowIterator) Next(ctx context.Context) (*Row, error) {
	if r.done {
		return nil, nil
	}
	if r.pending == nil {
		c, err := r.it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			r.done = true
			return nil, nil
		}
		r.pending = c
	}

	row := &Row{Key: r.pending.Row, Cells: []Cell{*r.pending}}
	r.pending = nil
	for {
		c, err := r.it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if c == nil {
			r.done = true
			return row, nil
		}
		if c.Row != row.Key {
			r.pending = c
			return row, nil
		}
		row.Cells = append(row.Cells, *c)
	}
}

func (r *RowIterator) Close() error {
	return r.it.Close()
}
