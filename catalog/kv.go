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

// Cell is one versionless key/value entry of the sorted catalog store:
// (row, family, qualifier) -> value. The row groups every fact about one
// entity, the family groups facts of one kind.
type Cell struct {
	Row       string
	Family    string
	Qualifier string
	Value     []byte
}

// lessCell orders cells by row, then family, then qualifier. This is the
// store's total key order, a scan yields cells in exactly this order.
func lessCell(a, b Cell) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	if a.Family != b.Family {
		return a.Family < b.Family
	}
	return a.Qualifier < b.Qualifier
}

// Range is a half-open row-key interval [Start, End). An empty End means
// unbounded, the zero Range covers the whole store.
type Range struct {
	Start string
	End   string
}

func (r Range) contains(row string) bool {
	if row < r.Start {
		return false
	}
	return r.End == "" || row < r.End
}

// PrefixRange returns the range of all rows starting with prefix.
func PrefixRange(prefix string) Range {
	return Range{Start: prefix, End: prefixEnd(prefix)}
}

func prefixEnd(prefix string) string {
	end := []byte(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return string(end[:i+1])
		}
	}
	// all 0xff, no upper bound
	return ""
}

// Iterator is a lazy cursor over cells in key order. Next returns nil once
// the sequence is exhausted. Iterators are not safe for concurrent use.
type Iterator interface {
	Next(ctx context.Context) (*Cell, error)
	Close() error
}

// Store is the sorted key-value interface the reconciliation engines are
// written against. Scans are lazy and sorted; Put and Delete are
// idempotent single-row upserts keyed by (row, family, qualifier), which
// is what lets concurrent master replicas run passes without coordination.
// Implementations signal connectivity loss with
// apperror.ErrCatalogUnavailable.
type Store interface {
	// Scan returns the cells of rng in key order. With families given,
	// only cells of those families are yielded.
	Scan(ctx context.Context, rng Range, families ...string) (Iterator, error)
	Put(ctx context.Context, cells ...Cell) error
	Delete(ctx context.Context, cells ...Cell) error
}
