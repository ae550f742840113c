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

import (
	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/coordinator/snapshot"
	"github.com/pingcap/granite/pkg/common"
)

// Classify decides from one tablet's record plus the shared snapshot
// whether the tablet needs administrative attention, and of which kind.
// It needs no catalog-wide state, so it can run as a filter over a lazy
// scan of millions of rows.
//
// Every condition that holds contributes a candidate action; the winner is
// the highest under the tie-break ordering. Outside of normal coordinator
// operation the assignment-category candidates are dropped so a restricted
// master never introduces new assignment churn.
func Classify(rec *catalog.TabletRecord, snap *snapshot.ClusterSnapshot) Action {
	best := ActionNone
	consider := func(a Action) {
		if snap.State != common.CoordinatorNormal && a.assignmentCategory() {
			return
		}
		if a.Precedes(best) {
			best = a
		}
	}

	if _, ok := snap.MergeCovering(rec.Extent); ok {
		consider(NeedsMergeHandling)
	}

	tableOnline := snap.TableOnline(rec.Extent.Table)

	// A located tablet of an offline table, or one hosted on a server
	// being drained, must be unloaded first.
	if rec.HasLocation() && (!tableOnline || snap.ServerShuttingDown(rec.Location)) {
		consider(NeedsUnassignment)
	}

	// Hosting server died; recovery may involve log replay upstream, so
	// this is a distinct signal from plain assignment.
	if rec.HasLocation() && !snap.ServerLive(rec.Location) {
		consider(NeedsReassignment)
	}

	if rec.HasMigration() {
		finished := rec.Location == rec.Migration
		abandoned := !snap.ServerLive(rec.Migration)
		if finished || abandoned {
			consider(NeedsMigrationCompletion)
		}
	}

	if tableOnline && !rec.HasLocation() {
		// A pending migration to a live server owns the tablet; so does
		// an active migration the snapshot knows about even before the
		// catalog row carries a target.
		migrating := (rec.HasMigration() && snap.ServerLive(rec.Migration)) ||
			snap.MigrationActive(rec.Extent)
		if !migrating {
			consider(NeedsAssignment)
		}
	}

	return best
}
