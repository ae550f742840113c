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
	"time"

	"github.com/pingcap/errors"
)

// MasterConfig controls the periodic reconciliation passes of the master.
type MasterConfig struct {
	// TabletPassInterval is the delay between two tablet-state scans.
	TabletPassInterval time.Duration `json:"tablet_pass_interval"`
	// WorkPassInterval is the delay between two replication work scans.
	WorkPassInterval time.Duration `json:"work_pass_interval"`
	// DebugTabletScan enables per-row diagnostics on the tablet-state
	// scan. It only affects logging, never filtering.
	DebugTabletScan bool `json:"debug_tablet_scan" default:"false"`
}

func NewDefaultMasterConfig() *MasterConfig {
	return &MasterConfig{
		TabletPassInterval: 10 * time.Second,
		WorkPassInterval:   30 * time.Second,
	}
}

func (c *MasterConfig) Validate() error {
	if c.TabletPassInterval <= 0 {
		return errors.Errorf("tablet_pass_interval must be positive, got %s", c.TabletPassInterval)
	}
	if c.WorkPassInterval <= 0 {
		return errors.Errorf("work_pass_interval must be positive, got %s", c.WorkPassInterval)
	}
	return nil
}
