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

package common

import "fmt"

// TableID identifies one table in the catalog.
type TableID string

func (t TableID) String() string {
	return string(t)
}

// ServerID identifies one tablet server instance, normally in the form
// "host:port[session]" so a restarted process on the same address gets a
// fresh identity.
type ServerID string

func (s ServerID) String() string {
	return string(s)
}

// CoordinatorState is the global operating mode of the master process.
// Outside of Normal the master must not introduce new assignment churn,
// only merge and unassignment signals are emitted.
type CoordinatorState int

const (
	CoordinatorNormal CoordinatorState = iota
	CoordinatorSafeMode
	CoordinatorStop
)

func (s CoordinatorState) String() string {
	switch s {
	case CoordinatorNormal:
		return "Normal"
	case CoordinatorSafeMode:
		return "SafeMode"
	case CoordinatorStop:
		return "Stop"
	default:
		return fmt.Sprintf("Unknown %d", s)
	}
}
