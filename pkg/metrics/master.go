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

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TabletRowScannedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "coordinator",
			Name:      "tablet_row_scanned_total",
			Help:      "number of tablet metadata rows visited by state scans",
		})

	TabletActionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "coordinator",
			Name:      "tablet_action_total",
			Help:      "number of actionable tablets found, by action",
		}, []string{"action"})

	TabletMalformedRowCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "coordinator",
			Name:      "tablet_malformed_row_total",
			Help:      "number of undecodable tablet metadata rows skipped",
		})

	TabletPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "granite",
			Subsystem: "coordinator",
			Name:      "tablet_pass_duration_seconds",
			Help:      "Bucketed histogram of one tablet-state pass duration (s).",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		})
)

var (
	WorkRecordCreatedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "replication",
			Name:      "work_record_created_total",
			Help:      "number of replication work records written",
		})

	StatusRecordScannedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "replication",
			Name:      "status_record_scanned_total",
			Help:      "number of replication status records visited by work scans",
		})

	StatusRecordMalformedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "replication",
			Name:      "status_record_malformed_total",
			Help:      "number of undecodable replication status records skipped",
		})

	WorkTableSkippedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "granite",
			Subsystem: "replication",
			Name:      "work_table_skipped_total",
			Help:      "number of tables skipped in a pass because replication configuration could not be resolved",
		})

	WorkPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "granite",
			Subsystem: "replication",
			Name:      "work_pass_duration_seconds",
			Help:      "Bucketed histogram of one replication work pass duration (s).",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
		})
)

// InitMasterMetrics registers every master-side collector with the registry.
func InitMasterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(TabletRowScannedCount)
	registry.MustRegister(TabletActionCount)
	registry.MustRegister(TabletMalformedRowCount)
	registry.MustRegister(TabletPassDuration)
	registry.MustRegister(WorkRecordCreatedCount)
	registry.MustRegister(StatusRecordScannedCount)
	registry.MustRegister(StatusRecordMalformedCount)
	registry.MustRegister(WorkTableSkippedCount)
	registry.MustRegister(WorkPassDuration)
}
