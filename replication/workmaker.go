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
	"context"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
	"github.com/pingcap/granite/pkg/config"
	"github.com/pingcap/granite/pkg/metrics"
)

// WorkMaker converts durable status records into per-destination work
// records for the asynchronous replication pipeline. It only materializes
// advisory, idempotent data; shipping the files is someone else's job.
type WorkMaker struct {
	store catalog.Store
	conf  config.TargetProvider
}

func NewWorkMaker(store catalog.Store, conf config.TargetProvider) *WorkMaker {
	return &WorkMaker{store: store, conf: conf}
}

// ShouldCreateWork decides whether a status record has outstanding work.
// The terminal fully-replicated sentinel never does. Any other closed
// record still needs a trailing work item; an open record needs one only
// once some progress is recorded.
func (w *WorkMaker) ShouldCreateWork(status Status) bool {
	if status.FullyReplicated() {
		return false
	}
	return status.Closed || status.HasProgress()
}

// AddWorkRecord writes one work record per configured target, all carrying
// the triggering status snapshot unchanged. With no targets configured it
// emits nothing and touches nothing. Re-running with the same arguments
// overwrites the same (file, target) keys, the persisted work set does not
// grow.
func (w *WorkMaker) AddWorkRecord(
	ctx context.Context,
	file string,
	status Status,
	targets map[string]common.TableID,
	sourceTable common.TableID,
) ([]Target, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	value, err := status.Encode()
	if err != nil {
		return nil, err
	}

	made := make([]Target, 0, len(targets))
	cells := make([]catalog.Cell, 0, len(targets))
	for peer, peerTable := range targets {
		t := Target{Peer: peer, PeerTable: peerTable, SourceTable: sourceTable}
		made = append(made, t)
		cells = append(cells, WorkCell(file, t, value))
	}
	if err := w.store.Put(ctx, cells...); err != nil {
		return nil, err
	}
	metrics.WorkRecordCreatedCount.Add(float64(len(cells)))
	return made, nil
}

// Run is one pass over the status section. Configuration failures are
// isolated per source table: the first failed lookup marks the table
// skipped for the rest of the pass and the scan moves on. Storage failures
// abort the pass, the driver retries on its next interval.
func (w *WorkMaker) Run(ctx context.Context) error {
	it, err := w.store.Scan(ctx, catalog.Range{}, FamilyStatus)
	if err != nil {
		return err
	}
	defer func() {
		if err := it.Close(); err != nil {
			log.Warn("closing status scan failed", zap.Error(err))
		}
	}()

	skipped := make(map[common.TableID]struct{})
	for {
		cell, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if cell == nil {
			return nil
		}
		metrics.StatusRecordScannedCount.Inc()

		table := common.TableID(cell.Qualifier)
		status, err := DecodeStatus(cell.Value)
		if err != nil {
			metrics.StatusRecordMalformedCount.Inc()
			log.Warn("skipping malformed replication status record",
				zap.String("file", cell.Row),
				zap.String("table", table.String()),
				zap.Error(err))
			continue
		}

		// Nothing to schedule; decided before any configuration lookup
		// since the table may have no replication configured at all.
		if !w.ShouldCreateWork(status) {
			continue
		}
		if _, ok := skipped[table]; ok {
			continue
		}

		targets, err := w.conf.Targets(ctx, table)
		if err != nil {
			if !apperror.Is(err, apperror.ErrReplicationConfigUnavailable) {
				return err
			}
			skipped[table] = struct{}{}
			metrics.WorkTableSkippedCount.Inc()
			log.Warn("replication configuration unresolved, skipping table for this pass",
				zap.String("table", table.String()),
				zap.Error(err))
			continue
		}
		if len(targets) == 0 {
			continue
		}

		if _, err := w.AddWorkRecord(ctx, cell.Row, status, targets, table); err != nil {
			return err
		}
	}
}
