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
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pingcap/granite/catalog"
	"github.com/pingcap/granite/coordinator/snapshot"
	"github.com/pingcap/granite/coordinator/tabletstate"
	"github.com/pingcap/granite/pkg/config"
	"github.com/pingcap/granite/pkg/metrics"
	"github.com/pingcap/granite/replication"
)

// ActionHandler receives every actionable tablet found by a pass. Handlers
// perform the implied action elsewhere (assignment protocol, recovery,
// merge bookkeeping); the coordinator itself never mutates membership or
// table lifecycle state.
type ActionHandler func(tabletstate.ActionableTablet)

// Coordinator runs the two periodic reconciliation sweeps of the master:
// the tablet-state scan over the metadata catalog and the replication work
// scan over the status region. Each pass is stateless, captures a fresh
// snapshot, and is safe to re-run or abort at any row boundary. Multiple
// master replicas may run passes concurrently, every write is an
// idempotent upsert.
type Coordinator struct {
	meta      catalog.Store
	provider  snapshot.Provider
	conf      *config.MasterConfig
	workMaker *replication.WorkMaker

	actionHandlers struct {
		sync.RWMutex
		m map[string]ActionHandler
	}

	running atomic.Bool
}

func New(
	meta catalog.Store,
	repl catalog.Store,
	provider snapshot.Provider,
	targets config.TargetProvider,
	conf *config.MasterConfig,
) *Coordinator {
	c := &Coordinator{
		meta:      meta,
		provider:  provider,
		conf:      conf,
		workMaker: replication.NewWorkMaker(repl, targets),
	}
	c.actionHandlers.m = make(map[string]ActionHandler)
	return c
}

// RegisterActionHandler subscribes a downstream consumer to tablet-state
// signals. Registration after Run is allowed.
func (c *Coordinator) RegisterActionHandler(name string, h ActionHandler) {
	c.actionHandlers.Lock()
	defer c.actionHandlers.Unlock()
	c.actionHandlers.m[name] = h
}

// Run drives both pass loops until the context is cancelled. A failed pass
// is logged and retried on its next interval, never inline.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		log.Panic("coordinator started twice")
	}
	defer c.running.Store(false)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.passLoop(ctx, "tablet-state", c.conf.TabletPassInterval, func(ctx context.Context) error {
			_, err := c.RunTabletPass(ctx)
			return err
		})
	})
	g.Go(func() error {
		return c.passLoop(ctx, "replication-work", c.conf.WorkPassInterval, c.RunWorkPass)
	})
	return g.Wait()
}

func (c *Coordinator) passLoop(ctx context.Context, name string, interval time.Duration, pass func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := pass(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("pass failed, waiting for next interval",
				zap.String("pass", name),
				zap.Error(err))
		}
	}
}

// RunTabletPass performs one tablet-state sweep and returns the number of
// actionable tablets dispatched. A fully settled cluster dispatches zero.
func (c *Coordinator) RunTabletPass(ctx context.Context) (int, error) {
	passID := uuid.New().String()
	start := time.Now()

	snap, err := snapshot.Capture(ctx, c.provider)
	if err != nil {
		log.Warn("cluster state unavailable, pass yields no actions",
			zap.String("passID", passID),
			zap.Error(err))
		return 0, err
	}

	scan, err := tabletstate.NewScan(ctx, c.meta, snap, tabletstate.ScanOptions{
		Debug: c.conf.DebugTabletScan,
	})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := scan.Close(); err != nil {
			log.Warn("closing tablet-state scan failed", zap.Error(err))
		}
	}()

	dispatched := 0
	for {
		actionable, err := scan.Next(ctx)
		if err != nil {
			return dispatched, err
		}
		if actionable == nil {
			break
		}
		c.dispatch(*actionable)
		dispatched++
	}

	metrics.TabletPassDuration.Observe(time.Since(start).Seconds())
	log.Info("tablet-state pass finished",
		zap.String("passID", passID),
		zap.Stringer("coordinatorState", snap.State),
		zap.Int("actionable", dispatched),
		zap.Duration("elapsed", time.Since(start)))
	return dispatched, nil
}

// RunWorkPass performs one replication work sweep.
func (c *Coordinator) RunWorkPass(ctx context.Context) error {
	start := time.Now()
	if err := c.workMaker.Run(ctx); err != nil {
		return err
	}
	metrics.WorkPassDuration.Observe(time.Since(start).Seconds())
	log.Info("replication work pass finished",
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Coordinator) dispatch(t tabletstate.ActionableTablet) {
	c.actionHandlers.RLock()
	defer c.actionHandlers.RUnlock()
	for _, h := range c.actionHandlers.m {
		h(t)
	}
}
