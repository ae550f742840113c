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

import "github.com/pingcap/granite/pkg/common"

// Column layout of tablet metadata rows. One row per tablet, keyed by
// Extent.MetaKey:
//
//	loc:<server>    current hosting server, at most one
//	future:<server> pending migration target, at most one
//	~tab:~pr        previous end row of the extent
const (
	FamilyLocation   = "loc"
	FamilyMigration  = "future"
	FamilyTabletMeta = "~tab"

	QualifierPrevRow = "~pr"
)

// LocationCell records that the tablet is hosted on server.
func LocationCell(e common.Extent, server common.ServerID) Cell {
	return Cell{Row: e.MetaKey(), Family: FamilyLocation, Qualifier: server.String()}
}

// MigrationCell records a pending migration of the tablet to server.
func MigrationCell(e common.Extent, server common.ServerID) Cell {
	return Cell{Row: e.MetaKey(), Family: FamilyMigration, Qualifier: server.String()}
}

// PrevRowCell records the lower bound of the tablet's extent.
func PrevRowCell(e common.Extent) Cell {
	return Cell{
		Row:       e.MetaKey(),
		Family:    FamilyTabletMeta,
		Qualifier: QualifierPrevRow,
		Value:     []byte(e.PrevEndRow),
	}
}

// TabletRange is the metadata row range holding every tablet of the table:
// the bounded keys "table;..." plus the unbounded-end key "table<".
func TabletRange(table common.TableID) Range {
	return Range{Start: string(table) + ";", End: string(table) + "="}
}

// MetaRange covers the whole tablet metadata section.
func MetaRange() Range {
	return Range{}
}
