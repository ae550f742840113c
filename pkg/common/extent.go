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

package common

import (
	"strings"

	"github.com/pingcap/errors"
)

// Metadata row key separators. A bounded tablet is keyed "table;endRow",
// the last tablet of a table (end row unbounded) is keyed "table<" so it
// sorts after every bounded key of the same table.
const (
	metaKeySeparator   = ';'
	metaKeyDefaultTail = '<'
)

// Extent identifies a tablet: the row range (PrevEndRow, EndRow] of one
// table. An empty EndRow means the range extends past every row (the last
// tablet); an empty PrevEndRow means the range starts before every row.
// Extents of one table partition its row space without gaps or overlaps,
// that invariant is maintained by the split/merge protocol, not here.
type Extent struct {
	Table      TableID
	EndRow     string
	PrevEndRow string
}

// MetaKey returns the catalog row key of the tablet. Key order equals
// extent order, so a catalog scan visits tablets table by table, range by
// range.
func (e Extent) MetaKey() string {
	if e.EndRow == "" {
		return string(e.Table) + string(metaKeyDefaultTail)
	}
	return string(e.Table) + string(metaKeySeparator) + e.EndRow
}

// ParseMetaKey is the inverse of MetaKey. PrevEndRow is not part of the
// key, callers recover it from the row's columns.
func ParseMetaKey(key string) (Extent, error) {
	if i := strings.IndexByte(key, metaKeySeparator); i > 0 {
		return Extent{Table: TableID(key[:i]), EndRow: key[i+1:]}, nil
	}
	if len(key) > 1 && key[len(key)-1] == metaKeyDefaultTail {
		return Extent{Table: TableID(key[:len(key)-1])}, nil
	}
	return Extent{}, errors.Errorf("not a tablet metadata key: %q", key)
}

func (e Extent) String() string {
	return e.MetaKey()
}

// Less orders extents by table, then by end row with the unbounded end row
// last. This matches catalog key order.
func (e Extent) Less(o Extent) bool {
	if e.Table != o.Table {
		return e.Table < o.Table
	}
	if e.EndRow == "" {
		return false
	}
	if o.EndRow == "" {
		return true
	}
	return e.EndRow < o.EndRow
}

// ContainsRow reports whether row falls inside (PrevEndRow, EndRow].
func (e Extent) ContainsRow(row string) bool {
	if e.PrevEndRow != "" && row <= e.PrevEndRow {
		return false
	}
	return e.EndRow == "" || row <= e.EndRow
}

// Overlaps reports whether the two extents share any rows.
func (e Extent) Overlaps(o Extent) bool {
	if e.Table != o.Table {
		return false
	}
	// e ends at or before o starts
	if e.EndRow != "" && o.PrevEndRow != "" && e.EndRow <= o.PrevEndRow {
		return false
	}
	// o ends at or before e starts
	if o.EndRow != "" && e.PrevEndRow != "" && o.EndRow <= e.PrevEndRow {
		return false
	}
	return true
}
