// Daystreak Core
// Copyright (c) 2026 The Daystreak Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Daystreak Core.
//
// Daystreak Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Daystreak Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Daystreak Core.  If not, see <http://www.gnu.org/licenses/>.

// Package service wires the core together: ledger, clock, reward
// controllers, notification broker and the API server.
package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/DaystreakProject/daystreak-core/pkg/api"
	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/database/ledger"
	"github.com/DaystreakProject/daystreak-core/pkg/helpers/syncutil"
	"github.com/DaystreakProject/daystreak-core/pkg/rewards"
	"github.com/DaystreakProject/daystreak-core/pkg/service/broker"
	"github.com/DaystreakProject/daystreak-core/pkg/timesync"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const notificationBuffer = 64

// Service owns the running core. There is exactly one clock per service;
// every dependent receives it explicitly rather than through any global
// lookup.
type Service struct {
	cfg        *config.Instance
	ledger     *ledger.Ledger
	clock      *timesync.Clock
	registry   *rewards.Registry
	broker     *broker.Broker
	ns         chan models.Notification
	syncCancel context.CancelFunc
	mu         syncutil.Mutex
}

// New assembles a service from configuration. The real clock may be a
// clockwork fake in tests; pass nil for the system clock.
func New(cfg *config.Instance, dataDir string, real clockwork.Clock) (*Service, error) {
	if real == nil {
		real = clockwork.NewRealClock()
	}

	lg, err := ledger.Open(filepath.Join(dataDir, ledger.DBFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	ns := make(chan models.Notification, notificationBuffer)
	clk := timesync.New(cfg, lg, real, ns)

	registry := rewards.NewRegistry()
	for _, cycle := range cfg.RewardCycles() {
		ctrl := rewards.NewController(cycle, lg, clk, ns)
		if err := registry.Register(ctrl); err != nil {
			// Config validation already rejects duplicate ids; if one still
			// appears, refuse to activate it rather than risk two writers on
			// the same ledger keys.
			log.Error().Err(err).Str("instance", cycle.InstanceID).
				Msg("refusing duplicate reward cycle instance")
			continue
		}
		log.Info().
			Str("instance", cycle.InstanceID).
			Int("cycle_length", len(cycle.Rewards)).
			Bool("reset_on_miss", cycle.ResetOnMiss).
			Msg("reward cycle registered")
	}

	return &Service{
		cfg:      cfg,
		ledger:   lg,
		clock:    clk,
		registry: registry,
		ns:       ns,
	}, nil
}

// Clock returns the service's clock for direct use by embedding callers.
func (s *Service) Clock() *timesync.Clock {
	return s.clock
}

// Registry returns the directory of active reward controllers.
func (s *Service) Registry() *rewards.Registry {
	return s.registry
}

// Run starts all components and blocks until the context is cancelled. The
// initial synchronization runs asynchronously: the service stays up even
// when every time source is down, reporting the clock as unavailable.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Msgf("starting %s v%s", config.AppName, config.AppVersion)

	s.broker = broker.NewBroker(ctx, s.ns)
	s.broker.Start()

	apiChan, apiSub := s.broker.Subscribe(notificationBuffer)
	resetChan, resetSub := s.broker.Subscribe(16)
	defer func() {
		s.broker.Unsubscribe(apiSub)
		s.broker.Unsubscribe(resetSub)
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.watchClockResets(gctx, resetChan)
		return nil
	})

	g.Go(func() error {
		return api.Start(gctx, api.Env{
			Clock:    s.clock,
			Registry: s.registry,
			Config:   s.cfg,
		}, apiChan)
	})

	g.Go(func() error {
		if err := s.Resume(gctx); err != nil {
			// Reported through clock state and the initialized notification;
			// not fatal to the service.
			log.Warn().Err(err).Msg("initial clock synchronization failed")
		}
		return nil
	})

	g.Go(func() error {
		s.clock.Run(gctx)
		return nil
	})

	err := g.Wait()

	if flushErr := s.ledger.Flush(); flushErr != nil {
		log.Error().Err(flushErr).Msg("error flushing ledger on shutdown")
	}
	if closeErr := s.ledger.Close(); closeErr != nil {
		log.Error().Err(closeErr).Msg("error closing ledger on shutdown")
	}

	log.Info().Msg("service stopped")
	return err
}

// watchClockResets invalidates controller caches whenever the clock is
// reset, so claim state is re-derived without a restart.
func (s *Service) watchClockResets(ctx context.Context, notifs <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifs:
			if !ok {
				return
			}
			if notif.Method != models.NotificationClockReset {
				continue
			}
			log.Info().Msg("clock reset, invalidating reward eligibility caches")
			for _, ctrl := range s.registry.All() {
				ctrl.InvalidateCache()
			}
		}
	}
}

// Suspend cancels any in-flight synchronization. Call when the application
// loses the foreground; ticks stop advancing time as soon as the process is
// actually frozen, and Resume re-verifies against the sources.
func (s *Service) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncCancel != nil {
		s.syncCancel()
		s.syncCancel = nil
	}
	log.Info().Msg("service suspended")
}

// Resume re-runs synchronization from the first configured source. Local
// continuation of an unverified clock across a suspend is exactly the
// manipulation window this guards against.
func (s *Service) Resume(ctx context.Context) error {
	s.mu.Lock()
	syncCtx, cancel := context.WithCancel(ctx)
	s.syncCancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.syncCancel != nil {
			s.syncCancel()
			s.syncCancel = nil
		}
		s.mu.Unlock()
	}()

	return s.clock.Synchronize(syncCtx)
}
