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
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
)

// TabletRecord is the decoded metadata row of one tablet: where it lives
// now and where it is being moved, if anywhere. Empty server ids mean
// absent.
type TabletRecord struct {
	Extent    common.Extent
	Location  common.ServerID
	Migration common.ServerID
}

func (r *TabletRecord) HasLocation() bool {
	return r.Location != ""
}

func (r *TabletRecord) HasMigration() bool {
	return r.Migration != ""
}

// DecodeTabletRecord parses one metadata row into a TabletRecord. A row
// that is not a tablet key, or that carries more than one location or
// migration column, fails with ErrMalformedRecord; callers skip such rows
// and keep scanning.
func DecodeTabletRecord(row *Row) (*TabletRecord, error) {
	extent, err := common.ParseMetaKey(row.Key)
	if err != nil {
		return nil, apperror.ErrMalformedRecord.GenWithStack("%s", err)
	}

	rec := &TabletRecord{Extent: extent}
	for _, c := range row.Cells {
		switch c.Family {
		case FamilyLocation:
			if rec.Location != "" && rec.Location != common.ServerID(c.Qualifier) {
				return nil, apperror.ErrMalformedRecord.GenWithStack(
					"tablet %s has multiple locations: %s, %s", row.Key, rec.Location, c.Qualifier)
			}
			rec.Location = common.ServerID(c.Qualifier)
		case FamilyMigration:
			if rec.Migration != "" && rec.Migration != common.ServerID(c.Qualifier) {
				return nil, apperror.ErrMalformedRecord.GenWithStack(
					"tablet %s has multiple migration targets: %s, %s", row.Key, rec.Migration, c.Qualifier)
			}
			rec.Migration = common.ServerID(c.Qualifier)
		case FamilyTabletMeta:
			if c.Qualifier == QualifierPrevRow {
				rec.Extent.PrevEndRow = string(c.Value)
			}
		default:
			// auxiliary columns other subsystems own, not interesting here
		}
	}
	return rec, nil
}
