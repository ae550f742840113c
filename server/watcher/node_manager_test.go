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

package watcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pingcap/granite/coordinator/snapshot"
	"github.com/pingcap/granite/pkg/common"
)

func TestNodeChangeHandlerFiresOnChangeOnly(t *testing.T) {
	m := NewNodeManager()

	fired := 0
	m.RegisterNodeChangeHandler("test", func(nodes map[common.ServerID]struct{}) {
		fired++
	})

	live := map[common.ServerID]struct{}{"srv1:9997[aa]": {}}
	m.UpdateLiveNodes(live)
	require.Equal(t, 1, fired)

	// same membership, no event
	m.UpdateLiveNodes(live)
	require.Equal(t, 1, fired)

	m.UpdateLiveNodes(map[common.ServerID]struct{}{
		"srv1:9997[aa]": {},
		"srv2:9997[bb]": {},
	})
	require.Equal(t, 2, fired)

	// a server dropping out is a change too
	m.UpdateLiveNodes(live)
	require.Equal(t, 3, fired)
}

func TestNodeManagerIsSnapshotProvider(t *testing.T) {
	m := NewNodeManager()
	ctx := context.Background()

	m.UpdateLiveNodes(map[common.ServerID]struct{}{"srv1:9997[aa]": {}})
	m.MarkShutdown("srv1:9997[aa]", true)
	m.SetTableOnline("t1", true)
	m.SetMerges([]common.MergeInfo{{Range: common.Extent{Table: "t1"}}})
	m.SetMigrations([]common.Extent{{Table: "t1", EndRow: "m"}})
	m.SetCoordinatorState(common.CoordinatorSafeMode)

	snap, err := snapshot.Capture(ctx, m)
	require.NoError(t, err)
	require.True(t, snap.ServerLive("srv1:9997[aa]"))
	require.True(t, snap.ServerShuttingDown("srv1:9997[aa]"))
	require.True(t, snap.TableOnline("t1"))
	require.Len(t, snap.Merges, 1)
	require.True(t, snap.MigrationActive(common.Extent{Table: "t1", EndRow: "m"}))
	require.Equal(t, common.CoordinatorSafeMode, snap.State)

	// the snapshot is a copy, later registry updates do not tear it
	m.MarkShutdown("srv1:9997[aa]", false)
	m.SetTableOnline("t1", false)
	require.True(t, snap.ServerShuttingDown("srv1:9997[aa]"))
	require.True(t, snap.TableOnline("t1"))
}

func TestMarkShutdownToggle(t *testing.T) {
	m := NewNodeManager()
	ctx := context.Background()

	m.MarkShutdown("srv1:9997[aa]", true)
	shutdown, err := m.ShutdownServers(ctx)
	require.NoError(t, err)
	require.Contains(t, shutdown, common.ServerID("srv1:9997[aa]"))

	m.MarkShutdown("srv1:9997[aa]", false)
	shutdown, err = m.ShutdownServers(ctx)
	require.NoError(t, err)
	require.Empty(t, shutdown)
}
