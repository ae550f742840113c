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

import "fmt"

// MergeOp distinguishes a range merge from a range delete. Both suppress
// ordinary tablet scheduling over the affected range while in progress.
type MergeOp int

const (
	MergeOpMerge MergeOp = iota
	MergeOpDelete
)

func (o MergeOp) String() string {
	switch o {
	case MergeOpMerge:
		return "Merge"
	case MergeOpDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown %d", o)
	}
}

// MergeInfo describes one in-progress merge: the target bounds of the
// surviving tablet and the kind of operation. Tablets whose extents fall
// inside Range need merge handling before any other scheduling decision.
type MergeInfo struct {
	Range Extent
	Op    MergeOp
}

// Covers reports whether the merge region overlaps the given extent.
func (m MergeInfo) Covers(e Extent) bool {
	return m.Range.Overlaps(e)
}

func (m MergeInfo) String() string {
	return fmt.Sprintf("%s(%s)", m.Op, m.Range)
}
