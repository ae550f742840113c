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

package apperror

import (
	"github.com/pingcap/errors"
)

// Errors shared by the master reconciliation passes. A pass driver matches
// on these to decide between aborting the current pass (unavailable source)
// and skipping a single row or table (malformed record, config failure).
var (
	// ErrCatalogUnavailable means the metadata catalog could not be read or
	// written. The whole pass aborts and retries on the next interval.
	ErrCatalogUnavailable = errors.Normalize(
		"catalog store is unavailable",
		errors.RFCCodeText("GRANITE:ErrCatalogUnavailable"),
	)
	// ErrSnapshotUnavailable means cluster state could not be captured at
	// pass start. The pass yields no actions.
	ErrSnapshotUnavailable = errors.Normalize(
		"cluster state snapshot is unavailable",
		errors.RFCCodeText("GRANITE:ErrSnapshotUnavailable"),
	)
	// ErrMalformedRecord marks a catalog row that cannot be decoded. The
	// row is skipped with a diagnostic, the scan continues.
	ErrMalformedRecord = errors.Normalize(
		"malformed catalog record",
		errors.RFCCodeText("GRANITE:ErrMalformedRecord"),
	)
	// ErrReplicationConfigUnavailable means the per-table replication
	// target configuration could not be resolved. Only that table's
	// records are skipped for the current pass.
	ErrReplicationConfigUnavailable = errors.Normalize(
		"replication configuration is unavailable",
		errors.RFCCodeText("GRANITE:ErrReplicationConfigUnavailable"),
	)
	// ErrIteratorClosed is returned by Next after Close.
	ErrIteratorClosed = errors.Normalize(
		"iterator is closed",
		errors.RFCCodeText("GRANITE:ErrIteratorClosed"),
	)
)

// Is reports whether err was produced from the given normalized error,
// unwrapping any annotations added on the way up.
func Is(err error, target *errors.Error) bool {
	return target.Equal(errors.Cause(err))
}
