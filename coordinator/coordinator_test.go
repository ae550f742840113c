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

package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/coordinator/tabletstate"
	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
	"github.com/pingcap/granite/pkg/config"
	"github.com/pingcap/granite/replication"
	"github.com/pingcap/granite/server/watcher"
)

const (
	srv1 = common.ServerID("srv1:9997[aa]")
	srv2 = common.ServerID("srv2:9997[bb]")
)

func newCluster(t *testing.T) (*catalog.MemStore, *catalog.MemStore, *watcher.NodeManager) {
	t.Helper()
	meta := catalog.NewMemStore()
	repl := catalog.NewMemStore()

	nodes := watcher.NewNodeManager()
	nodes.UpdateLiveNodes(map[common.ServerID]struct{}{srv1: {}, srv2: {}})
	nodes.SetTableOnline("t1", true)
	nodes.SetTableOnline("t2", true)

	ctx := context.Background()
	for _, e := range []common.Extent{
		{Table: "t1", EndRow: "m"},
		{Table: "t1", PrevEndRow: "m"},
		{Table: "t2"},
	} {
		require.NoError(t, meta.Put(ctx, catalog.PrevRowCell(e), catalog.LocationCell(e, srv1)))
	}
	return meta, repl, nodes
}

func TestTabletPassSettledClusterDispatchesNothing(t *testing.T) {
	meta, repl, nodes := newCluster(t)
	c := New(meta, repl, nodes, config.StaticTargets{}, config.NewDefaultMasterConfig())

	c.RegisterActionHandler("test", func(a tabletstate.ActionableTablet) {
		t.Errorf("unexpected action %s for %s", a.Action, a.Record.Extent)
	})

	dispatched, err := c.RunTabletPass(context.Background())
	require.NoError(t, err)
	require.Zero(t, dispatched)
}

func TestTabletPassDispatchesActionableTablets(t *testing.T) {
	meta, repl, nodes := newCluster(t)
	ctx := context.Background()

	// kill the host of every t1 tablet
	nodes.UpdateLiveNodes(map[common.ServerID]struct{}{srv2: {}})

	c := New(meta, repl, nodes, config.StaticTargets{}, config.NewDefaultMasterConfig())

	var mu sync.Mutex
	var seen []tabletstate.ActionableTablet
	c.RegisterActionHandler("test", func(a tabletstate.ActionableTablet) {
		mu.Lock()
		seen = append(seen, a)
		mu.Unlock()
	})

	dispatched, err := c.RunTabletPass(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, dispatched)
	require.Len(t, seen, 3)
	for _, a := range seen {
		require.Equal(t, tabletstate.NeedsReassignment, a.Action)
		require.Equal(t, srv1, a.Record.Location)
	}
}

func TestTabletPassAbortsWhenCatalogUnavailable(t *testing.T) {
	meta, repl, nodes := newCluster(t)
	c := New(meta, repl, nodes, config.StaticTargets{}, config.NewDefaultMasterConfig())

	meta.SetUnavailable(true)
	_, err := c.RunTabletPass(context.Background())
	require.True(t, apperror.Is(err, apperror.ErrCatalogUnavailable))
}

func TestWorkPass(t *testing.T) {
	meta, repl, nodes := newCluster(t)
	ctx := context.Background()

	cell, err := replication.StatusCell("wal/srv1+9997/0001", "t1", replication.IngestedUntil(512))
	require.NoError(t, err)
	require.NoError(t, repl.Put(ctx, cell))

	targets := config.StaticTargets{"t1": {"dr_site": "t1_dr"}}
	c := New(meta, repl, nodes, targets, config.NewDefaultMasterConfig())
	require.NoError(t, c.RunWorkPass(ctx))

	it, err := repl.Scan(ctx, catalog.Range{}, replication.FamilyWork)
	require.NoError(t, err)
	defer func() { require.NoError(t, it.Close()) }()
	work, err := it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, work)
	target, err := replication.DecodeTarget(work.Qualifier)
	require.NoError(t, err)
	require.Equal(t, replication.Target{Peer: "dr_site", PeerTable: "t1_dr", SourceTable: "t1"}, target)

	end, err := it.Next(ctx)
	require.NoError(t, err)
	require.Nil(t, end)
}

func TestRunStopsOnCancel(t *testing.T) {
	meta, repl, nodes := newCluster(t)
	conf := config.NewDefaultMasterConfig()
	conf.TabletPassInterval = 5 * time.Millisecond
	conf.WorkPassInterval = 5 * time.Millisecond

	c := New(meta, repl, nodes, config.StaticTargets{}, conf)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// let a few passes run, then cancel mid-flight
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop after cancel")
	}
}
