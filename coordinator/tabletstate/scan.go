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
	"context"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/coordinator/snapshot"
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/metrics"
)

// ActionableTablet is one scan result: a tablet that needs attention and
// the kind of attention it needs.
type ActionableTablet struct {
	Record catalog.TabletRecord
	Action Action
}

// ScanOptions tune diagnostics only, never filtering semantics.
type ScanOptions struct {
	// Debug logs every visited row with its classification.
	Debug bool
	// Range restricts the scan to a row-key shard. The zero value scans
	// the whole metadata section; shards of one pass may run in parallel
	// since every row's decision is independent.
	Range catalog.Range
}

// Scan is a lazy, restartable-per-pass sequence of actionable tablets:
// settled tablets are filtered out without ever being buffered. On a fully
// settled cluster it yields nothing at all.
type Scan struct {
	rows *catalog.RowIterator
	snap *snapshot.ClusterSnapshot
	opts ScanOptions
}

// NewScan starts one filtered traversal of the tablet metadata section.
// The snapshot is held fixed for the lifetime of the scan.
func NewScan(ctx context.Context, store catalog.Store, snap *snapshot.ClusterSnapshot, opts ScanOptions) (*Scan, error) {
	it, err := store.Scan(ctx, opts.Range,
		catalog.FamilyLocation, catalog.FamilyMigration, catalog.FamilyTabletMeta)
	if err != nil {
		return nil, err
	}
	return &Scan{rows: catalog.NewRowIterator(it), snap: snap, opts: opts}, nil
}

// Next returns the next tablet needing attention, or nil at end of scan.
// Malformed rows are skipped with a diagnostic and never abort the scan.
func (s *Scan) Next(ctx context.Context) (*ActionableTablet, error) {
	for {
		row, err := s.rows.Next(ctx)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		metrics.TabletRowScannedCount.Inc()

		rec, err := catalog.DecodeTabletRecord(row)
		if err != nil {
			if !apperror.Is(err, apperror.ErrMalformedRecord) {
				return nil, err
			}
			metrics.TabletMalformedRowCount.Inc()
			log.Warn("skipping malformed tablet metadata row",
				zap.String("row", row.Key),
				zap.Error(err))
			continue
		}

		action := Classify(rec, s.snap)
		if s.opts.Debug {
			log.Info("classified tablet",
				zap.Stringer("extent", rec.Extent),
				zap.String("location", rec.Location.String()),
				zap.String("migration", rec.Migration.String()),
				zap.Stringer("action", action))
		}
		if action == ActionNone {
			continue
		}
		metrics.TabletActionCount.WithLabelValues(action.String()).Inc()
		return &ActionableTablet{Record: *rec, Action: action}, nil
	}
}

func (s *Scan) Close() error {
	return s.rows.Close()
}
