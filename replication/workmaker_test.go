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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
	"github.com/pingcap/granite/pkg/config"
)

const walFile = "wal/srv1+9997/123456-1234-1234-12345678"

func putStatus(t *testing.T, store *catalog.MemStore, file string, table common.TableID, status Status) {
	t.Helper()
	cell, err := StatusCell(file, table, status)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), cell))
}

func scanWork(t *testing.T, store *catalog.MemStore) []catalog.Cell {
	t.Helper()
	ctx := context.Background()
	it, err := store.Scan(ctx, catalog.Range{}, FamilyWork)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Close()) }()
	var out []catalog.Cell
	for {
		c, err := it.Next(ctx)
		require.NoError(t, err)
		if c == nil {
			return out
		}
		out = append(out, *c)
	}
}

func TestSingleUnitSingleTarget(t *testing.T) {
	store := catalog.NewMemStore()
	ctx := context.Background()
	status := FileCreated(time.Now().UnixMilli())
	putStatus(t, store, walFile, "2", status)

	maker := NewWorkMaker(store, config.StaticTargets{})
	made, err := maker.AddWorkRecord(ctx, walFile, status,
		map[string]common.TableID{"remote_cluster_1": "4"}, "2")
	require.NoError(t, err)
	require.Len(t, made, 1)

	work := scanWork(t, store)
	require.Len(t, work, 1)
	require.Equal(t, walFile, work[0].Row)
	require.Equal(t, FamilyWork, work[0].Family)

	target, err := DecodeTarget(work[0].Qualifier)
	require.NoError(t, err)
	require.Equal(t, Target{Peer: "remote_cluster_1", PeerTable: "4", SourceTable: "2"}, target)

	// the work record carries the triggering status snapshot unchanged
	got, err := DecodeStatus(work[0].Value)
	require.NoError(t, err)
	require.Equal(t, status, got)
}

func TestSingleUnitMultipleTargets(t *testing.T) {
	store := catalog.NewMemStore()
	ctx := context.Background()
	status := IngestedUntil(1000)

	targets := map[string]common.TableID{
		"remote_cluster_1": "4",
		"remote_cluster_2": "6",
		"remote_cluster_3": "8",
	}
	maker := NewWorkMaker(store, config.StaticTargets{})
	made, err := maker.AddWorkRecord(ctx, walFile, status, targets, "2")
	require.NoError(t, err)
	require.Len(t, made, len(targets))

	expected := make(map[Target]struct{}, len(targets))
	for peer, peerTable := range targets {
		expected[Target{Peer: peer, PeerTable: peerTable, SourceTable: "2"}] = struct{}{}
	}

	actual := make(map[Target]struct{})
	for _, cell := range scanWork(t, store) {
		require.Equal(t, walFile, cell.Row)
		target, err := DecodeTarget(cell.Qualifier)
		require.NoError(t, err)
		actual[target] = struct{}{}
	}
	// no target dropped, none invented
	require.Equal(t, expected, actual)
}

func TestAddWorkRecordNoTargets(t *testing.T) {
	store := catalog.NewMemStore()
	maker := NewWorkMaker(store, config.StaticTargets{})

	made, err := maker.AddWorkRecord(context.Background(), walFile, IngestedUntil(10), nil, "2")
	require.NoError(t, err)
	require.Empty(t, made)
	require.Equal(t, 0, store.Len())
}

func TestAddWorkRecordIdempotent(t *testing.T) {
	store := catalog.NewMemStore()
	ctx := context.Background()
	status := IngestedUntil(512)
	targets := map[string]common.TableID{"remote_cluster_1": "4", "remote_cluster_2": "6"}
	maker := NewWorkMaker(store, config.StaticTargets{})

	_, err := maker.AddWorkRecord(ctx, walFile, status, targets, "2")
	require.NoError(t, err)
	once := scanWork(t, store)

	_, err = maker.AddWorkRecord(ctx, walFile, status, targets, "2")
	require.NoError(t, err)
	twice := scanWork(t, store)

	// a second write is an overwrite, not an additional record
	require.Equal(t, once, twice)
}

func TestShouldCreateWork(t *testing.T) {
	maker := NewWorkMaker(catalog.NewMemStore(), config.StaticTargets{})

	require.False(t, maker.ShouldCreateWork(FileCreated(time.Now().UnixMilli())))
	require.True(t, maker.ShouldCreateWork(IngestedUntil(1000)))
	// a closed but not fully drained source still needs a trailing item
	require.True(t, maker.ShouldCreateWork(Status{Closed: true}))
	require.True(t, maker.ShouldCreateWork(Status{Closed: true, End: 100}))
	// no need to re-create work for something already replicated
	require.False(t, maker.ShouldCreateWork(Replicated()))
}

// countingTargets fails the test if a lookup happens at all.
type countingTargets struct {
	t     *testing.T
	calls int
}

func (c *countingTargets) Targets(context.Context, common.TableID) (map[string]common.TableID, error) {
	c.calls++
	c.t.Fatal("configuration lookup for a record with nothing to replicate")
	return nil, nil
}

func TestRunSkipsRecordsWithNothingToReplicate(t *testing.T) {
	store := catalog.NewMemStore()
	putStatus(t, store, walFile, "2", FileCreated(time.Now().UnixMilli()))
	putStatus(t, store, "wal/srv2+9997/0000", "2", Replicated())

	conf := &countingTargets{t: t}
	maker := NewWorkMaker(store, conf)
	require.NoError(t, maker.Run(context.Background()))
	require.Empty(t, scanWork(t, store))
	require.Zero(t, conf.calls)
}

func TestRunCreatesWorkPerTarget(t *testing.T) {
	store := catalog.NewMemStore()
	putStatus(t, store, walFile, "2", IngestedUntil(2048))

	maker := NewWorkMaker(store, config.StaticTargets{
		"2": {"remote_cluster_1": "4", "remote_cluster_2": "6"},
	})
	require.NoError(t, maker.Run(context.Background()))
	require.Len(t, scanWork(t, store), 2)

	// re-running over the unchanged status must not grow the work set
	require.NoError(t, maker.Run(context.Background()))
	require.Len(t, scanWork(t, store), 2)
}

func TestRunWithoutReplicationConfigured(t *testing.T) {
	store := catalog.NewMemStore()
	putStatus(t, store, walFile, "2", IngestedUntil(100))

	maker := NewWorkMaker(store, config.StaticTargets{})
	require.NoError(t, maker.Run(context.Background()))
	require.Empty(t, scanWork(t, store))
}

// flakyTargets resolves one table and fails every other lookup.
type flakyTargets struct {
	healthy common.TableID
	targets map[string]common.TableID
	failed  int
}

func (f *flakyTargets) Targets(_ context.Context, table common.TableID) (map[string]common.TableID, error) {
	if table == f.healthy {
		return f.targets, nil
	}
	f.failed++
	return nil, apperror.ErrReplicationConfigUnavailable.GenWithStackByArgs()
}

func TestRunIsolatesConfigFailurePerTable(t *testing.T) {
	store := catalog.NewMemStore()
	putStatus(t, store, "wal/a", "2", IngestedUntil(100))
	putStatus(t, store, "wal/b", "3", IngestedUntil(100))
	putStatus(t, store, "wal/c", "3", IngestedUntil(200))

	conf := &flakyTargets{healthy: "2", targets: map[string]common.TableID{"remote_cluster_1": "4"}}
	maker := NewWorkMaker(store, conf)
	require.NoError(t, maker.Run(context.Background()))

	work := scanWork(t, store)
	require.Len(t, work, 1)
	require.Equal(t, "wal/a", work[0].Row)
	// the broken table is skipped once, then remembered for the pass
	require.Equal(t, 1, conf.failed)
}

func TestRunAbortsWhenStoreUnavailable(t *testing.T) {
	store := catalog.NewMemStore()
	putStatus(t, store, walFile, "2", IngestedUntil(100))
	store.SetUnavailable(true)

	maker := NewWorkMaker(store, config.StaticTargets{})
	err := maker.Run(context.Background())
	require.True(t, apperror.Is(err, apperror.ErrCatalogUnavailable))
}

func TestRunSkipsMalformedStatusRecords(t *testing.T) {
	store := catalog.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, catalog.Cell{
		Row: "wal/bad", Family: FamilyStatus, Qualifier: "2", Value: []byte("not json"),
	}))
	putStatus(t, store, "wal/good", "2", IngestedUntil(100))

	maker := NewWorkMaker(store, config.StaticTargets{
		"2": {"remote_cluster_1": "4"},
	})
	require.NoError(t, maker.Run(ctx))

	work := scanWork(t, store)
	require.Len(t, work, 1)
	require.Equal(t, "wal/good", work[0].Row)
}
