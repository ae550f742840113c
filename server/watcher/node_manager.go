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
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/pingcap/granite/pkg/common"
)

const NodeManagerName = "node-manager"

type NodeChangeHandler func(map[common.ServerID]struct{})

// NodeManager maintains the master's read view of cluster state: live
// tablet servers, servers draining for shutdown, online tables, and the
// in-progress merges and migrations. It implements snapshot.Provider, so
// embedders without an external membership service can feed heartbeats in
// here and reconcile against it. Other modules can register for server
// membership change events.
type NodeManager struct {
	mu         sync.RWMutex
	nodes      map[common.ServerID]struct{}
	shutdown   map[common.ServerID]struct{}
	tables     map[common.TableID]struct{}
	merges     []common.MergeInfo
	migrations []common.Extent
	state      common.CoordinatorState

	nodeChangeHandlers struct {
		sync.RWMutex
		m map[string]NodeChangeHandler
	}
}

func NewNodeManager() *NodeManager {
	m := &NodeManager{
		nodes:    make(map[common.ServerID]struct{}),
		shutdown: make(map[common.ServerID]struct{}),
		tables:   make(map[common.TableID]struct{}),
	}
	m.nodeChangeHandlers.m = make(map[string]NodeChangeHandler)
	return m
}

func (m *NodeManager) Name() string {
	return NodeManagerName
}

// UpdateLiveNodes replaces the live server set, typically from a heartbeat
// sweep. Registered handlers fire only when membership actually changed.
func (m *NodeManager) UpdateLiveNodes(nodes map[common.ServerID]struct{}) {
	m.mu.Lock()
	changed := len(nodes) != len(m.nodes)
	if !changed {
		for id := range nodes {
			if _, exist := m.nodes[id]; !exist {
				changed = true
				break
			}
		}
	}
	next := make(map[common.ServerID]struct{}, len(nodes))
	for id := range nodes {
		next[id] = struct{}{}
	}
	m.nodes = next
	m.mu.Unlock()

	if changed {
		log.Info("server change detected", zap.Int("liveServers", len(next)))
		m.nodeChangeHandlers.RLock()
		defer m.nodeChangeHandlers.RUnlock()
		for _, handler := range m.nodeChangeHandlers.m {
			handler(next)
		}
	}
}

// MarkShutdown records that a server is draining. Tablets it still hosts
// will be signalled for unassignment by the next pass.
func (m *NodeManager) MarkShutdown(id common.ServerID, draining bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if draining {
		m.shutdown[id] = struct{}{}
	} else {
		delete(m.shutdown, id)
	}
}

// SetTableOnline records a table's lifecycle state, owned by the table
// lifecycle subsystem.
func (m *NodeManager) SetTableOnline(id common.TableID, online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if online {
		m.tables[id] = struct{}{}
	} else {
		delete(m.tables, id)
	}
}

func (m *NodeManager) SetMerges(merges []common.MergeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merges = append([]common.MergeInfo(nil), merges...)
}

func (m *NodeManager) SetMigrations(migrations []common.Extent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.migrations = append([]common.Extent(nil), migrations...)
}

func (m *NodeManager) SetCoordinatorState(state common.CoordinatorState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// OnlineTabletServers implements snapshot.Provider.
func (m *NodeManager) OnlineTabletServers(context.Context) (map[common.ServerID]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySet(m.nodes), nil
}

// OnlineTables implements snapshot.Provider.
func (m *NodeManager) OnlineTables(context.Context) (map[common.TableID]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySet(m.tables), nil
}

// Merges implements snapshot.Provider.
func (m *NodeManager) Merges(context.Context) ([]common.MergeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]common.MergeInfo(nil), m.merges...), nil
}

// Migrations implements snapshot.Provider.
func (m *NodeManager) Migrations(context.Context) ([]common.Extent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]common.Extent(nil), m.migrations...), nil
}

// CoordinatorState implements snapshot.Provider.
func (m *NodeManager) CoordinatorState(context.Context) (common.CoordinatorState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

// ShutdownServers implements snapshot.Provider.
func (m *NodeManager) ShutdownServers(context.Context) (map[common.ServerID]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySet(m.shutdown), nil
}

// GetAliveNodes returns the current live server set. The caller must not
// modify the returned map.
func (m *NodeManager) GetAliveNodes() map[common.ServerID]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nodes
}

func (m *NodeManager) RegisterNodeChangeHandler(name string, handler NodeChangeHandler) {
	m.nodeChangeHandlers.Lock()
	defer m.nodeChangeHandlers.Unlock()
	m.nodeChangeHandlers.m[name] = handler
}

func copySet[K comparable](in map[K]struct{}) map[K]struct{} {
	out := make(map[K]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
