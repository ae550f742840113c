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

package snapshot

import (
	"context"

	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
)

// Provider is the read-only shape of the membership/config service the
// master reconciles against. Any implementation is substitutable; tests
// use fixed-answer stubs.
type Provider interface {
	OnlineTabletServers(ctx context.Context) (map[common.ServerID]struct{}, error)
	OnlineTables(ctx context.Context) (map[common.TableID]struct{}, error)
	Merges(ctx context.Context) ([]common.MergeInfo, error)
	Migrations(ctx context.Context) ([]common.Extent, error)
	CoordinatorState(ctx context.Context) (common.CoordinatorState, error)
	ShutdownServers(ctx context.Context) (map[common.ServerID]struct{}, error)
}

// ClusterSnapshot is an immutable view of cluster state, captured once at
// the start of a reconciliation pass and held fixed for every row of the
// scan. Staleness is expected, the next pass corrects any decision made on
// outdated membership.
type ClusterSnapshot struct {
	LiveServers     map[common.ServerID]struct{}
	OnlineTables    map[common.TableID]struct{}
	Merges          []common.MergeInfo
	Migrations      []common.Extent
	State           common.CoordinatorState
	ShutdownServers map[common.ServerID]struct{}
}

// Capture reads every facet of the provider into one consistent-enough
// value. Any provider failure aborts the capture, the pass yields no
// actions.
func Capture(ctx context.Context, p Provider) (*ClusterSnapshot, error) {
	live, err := p.OnlineTabletServers(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	tables, err := p.OnlineTables(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	merges, err := p.Merges(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	migrations, err := p.Migrations(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	state, err := p.CoordinatorState(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	shutdown, err := p.ShutdownServers(ctx)
	if err != nil {
		return nil, apperror.ErrSnapshotUnavailable.GenWithStack("%s", err)
	}
	return &ClusterSnapshot{
		LiveServers:     live,
		OnlineTables:    tables,
		Merges:          merges,
		Migrations:      migrations,
		State:           state,
		ShutdownServers: shutdown,
	}, nil
}

func (s *ClusterSnapshot) ServerLive(id common.ServerID) bool {
	_, ok := s.LiveServers[id]
	return ok
}

func (s *ClusterSnapshot) TableOnline(id common.TableID) bool {
	_, ok := s.OnlineTables[id]
	return ok
}

func (s *ClusterSnapshot) ServerShuttingDown(id common.ServerID) bool {
	_, ok := s.ShutdownServers[id]
	return ok
}

// MergeCovering returns the in-progress merge overlapping the extent, if
// any.
func (s *ClusterSnapshot) MergeCovering(e common.Extent) (common.MergeInfo, bool) {
	for _, m := range s.Merges {
		if m.Covers(e) {
			return m, true
		}
	}
	return common.MergeInfo{}, false
}

// MigrationActive reports whether the extent is part of an in-progress,
// explicitly requested migration.
func (s *ClusterSnapshot) MigrationActive(e common.Extent) bool {
	for _, m := range s.Migrations {
		if m.Table == e.Table && m.EndRow == e.EndRow {
			return true
		}
	}
	return false
}
