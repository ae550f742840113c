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

package config

import (
	"context"

	"github.com/pingcap/granite/pkg/apperror"
	"github.com/pingcap/granite/pkg/common"
)

// TargetProvider resolves the replication targets configured for a source
// table: a mapping from peer cluster name to the table id on that peer.
// An empty map means the table has no replication configured. Resolution
// failures are isolated per table by the callers, one broken table must
// not stop the scan for the others.
type TargetProvider interface {
	Targets(ctx context.Context, table common.TableID) (map[string]common.TableID, error)
}

// StaticTargets is a TargetProvider backed by a fixed in-memory mapping,
// used in tests and by embedders whose configuration does not change at
// runtime.
type StaticTargets map[common.TableID]map[string]common.TableID

func (s StaticTargets) Targets(_ context.Context, table common.TableID) (map[string]common.TableID, error) {
	return s[table], nil
}

// UnavailableTargets is a TargetProvider that fails every lookup, modelling
// an unreachable configuration store.
type UnavailableTargets struct{}

func (UnavailableTargets) Targets(context.Context, common.TableID) (map[string]common.TableID, error) {
	return nil, apperror.ErrReplicationConfigUnavailable.GenWithStackByArgs()
}
