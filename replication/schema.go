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

package replication

import (
	"strings"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
)

// Layout of the replication region. Rows are keyed by source file, with
// two column families:
//
//	status:<sourceTable>  -> encoded Status, replay progress of the file
//	work:<encoded target> -> encoded Status, one pending work item per
//	                         destination
//
// Work cells are keyed by (file, target), so re-creating a work record is
// an overwrite, never a duplicate.
const (
	FamilyStatus = "status"
	FamilyWork   = "work"
)

// targetSeparator joins the target fields inside a work qualifier. NUL
// cannot appear in peer names or table ids.
const targetSeparator = "\x00"

// Target identifies one replication destination: the table on a peer
// cluster that data from the source table is shipped to.
type Target struct {
	Peer        string
	PeerTable   common.TableID
	SourceTable common.TableID
}

func (t Target) Encode() string {
	return t.Peer + targetSeparator + string(t.PeerTable) + targetSeparator + string(t.SourceTable)
}

func DecodeTarget(qualifier string) (Target, error) {
	parts := strings.Split(qualifier, targetSeparator)
	if len(parts) != 3 || parts[0] == "" {
		return Target{}, apperror.ErrMalformedRecord.GenWithStack(
			"not a replication target qualifier: %q", qualifier)
	}
	return Target{
		Peer:        parts[0],
		PeerTable:   common.TableID(parts[1]),
		SourceTable: common.TableID(parts[2]),
	}, nil
}

func (t Target) String() string {
	return t.Peer + "/" + string(t.PeerTable) + "<-" + string(t.SourceTable)
}

// StatusCell builds the status entry of one source file for one source
// table.
func StatusCell(file string, table common.TableID, status Status) (catalog.Cell, error) {
	value, err := status.Encode()
	if err != nil {
		return catalog.Cell{}, err
	}
	return catalog.Cell{
		Row:       file,
		Family:    FamilyStatus,
		Qualifier: string(table),
		Value:     value,
	}, nil
}

// WorkCell builds the work entry of one (file, target) pair carrying the
// triggering status snapshot.
func WorkCell(file string, target Target, statusValue []byte) catalog.Cell {
	return catalog.Cell{
		Row:       file,
		Family:    FamilyWork,
		Qualifier: target.Encode(),
		Value:     statusValue,
	}
}
