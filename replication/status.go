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
	"encoding/json"
	"math"

	"github.com/pingcap/granite/pkg/apperror"
)

// Status records replay progress of one source file into one destination
// table: [Begin, End) is the replicated span of the file, InfiniteEnd means
// the span is unbounded on the right, Closed means the source will receive
// no further data.
type Status struct {
	CreatedTime int64 `json:"created_time,omitempty"`
	Begin       int64 `json:"begin,omitempty"`
	End         int64 `json:"end,omitempty"`
	InfiniteEnd bool  `json:"infinite_end,omitempty"`
	Closed      bool  `json:"closed,omitempty"`
}

// FileCreated is the status of a freshly tracked source file: open, no
// progress recorded yet.
func FileCreated(createdTime int64) Status {
	return Status{CreatedTime: createdTime}
}

// IngestedUntil records that data up to offset end has been made available
// for replication.
func IngestedUntil(end int64) Status {
	return Status{End: end}
}

// Replicated is the terminal sentinel: fully replicated, nothing left. It
// is a marker value, not a normal progress reading.
func Replicated() Status {
	return Status{Begin: math.MaxInt64, End: 0, InfiniteEnd: true, Closed: true}
}

// FullyReplicated reports whether the status is the terminal sentinel.
func (s Status) FullyReplicated() bool {
	return s.Closed && s.InfiniteEnd && s.Begin == math.MaxInt64 && s.End == 0
}

// HasProgress reports whether any created/ingested data is recorded.
func (s Status) HasProgress() bool {
	return s.End > s.Begin
}

func (s Status) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, apperror.ErrMalformedRecord.GenWithStack("%s", err)
	}
	return data, nil
}

func DecodeStatus(data []byte) (Status, error) {
	var s Status
	if len(data) == 0 {
		return s, apperror.ErrMalformedRecord.GenWithStack("empty status value")
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, apperror.ErrMalformedRecord.GenWithStack("%s", err)
	}
	return s, nil
}
