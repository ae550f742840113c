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

package tabletstate

import "fmt"

// Action is the category of administrative attention a tablet needs.
// ActionNone means the tablet is settled and is filtered out of the scan.
type Action int

const (
	ActionNone Action = iota
	NeedsAssignment
	NeedsReassignment
	NeedsMigrationCompletion
	NeedsUnassignment
	NeedsMergeHandling
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case NeedsAssignment:
		return "NeedsAssignment"
	case NeedsReassignment:
		return "NeedsReassignment"
	case NeedsMigrationCompletion:
		return "NeedsMigrationCompletion"
	case NeedsUnassignment:
		return "NeedsUnassignment"
	case NeedsMergeHandling:
		return "NeedsMergeHandling"
	default:
		return fmt.Sprintf("Unknown %d", a)
	}
}

// actionPriority is the total ordering used when several conditions hold
// on one tablet. Merge and shutdown situations must be resolved before new
// assignment churn is introduced, so:
//
//	merge > unassignment > reassignment > migration completion > assignment
var actionPriority = map[Action]int{
	NeedsMergeHandling:       5,
	NeedsUnassignment:        4,
	NeedsReassignment:        3,
	NeedsMigrationCompletion: 2,
	NeedsAssignment:          1,
	ActionNone:               0,
}

// Precedes reports whether a wins over b under the tie-break ordering.
func (a Action) Precedes(b Action) bool {
	return actionPriority[a] > actionPriority[b]
}

// assignmentCategory reports whether the action introduces new assignment
// work. These are suppressed while the coordinator is not in normal
// operating mode; merge and unassignment handling always go through.
func (a Action) assignmentCategory() bool {
	switch a {
	case NeedsAssignment, NeedsReassignment, NeedsMigrationCompletion:
		return true
	default:
		return false
	}
}
