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

// Package timesync resolves authoritative time from remote sources and
// advances it between synchronizations via discrete ticks. Local wall-clock
// time is never silently substituted for remote time: when no source can be
// reached the clock reports itself unavailable and callers decide what to do.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/api/notifications"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/database/ledger"
	"github.com/DaystreakProject/daystreak-core/pkg/helpers/syncutil"
	"github.com/DaystreakProject/daystreak-core/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClockUnavailable is returned while the clock is not synchronized.
	ErrClockUnavailable = errors.New("synchronized time unavailable")
	// ErrAllSourcesExhausted is returned when every configured source failed
	// its full retry budget.
	ErrAllSourcesExhausted = errors.New("all time sources exhausted")
	// ErrNoSources is returned when no time sources are configured.
	ErrNoSources = errors.New("no time sources configured")
)

// DebugOffsetKey is the ledger key holding the persisted debug offset.
const DebugOffsetKey = "clock.debug_offset"

type Status int

const (
	StatusUninitialized Status = iota
	StatusSynchronizing
	StatusSynchronized
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusSynchronizing:
		return "synchronizing"
	case StatusSynchronized:
		return "synchronized"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Clock owns the synchronized time. Time only moves forward between
// synchronizations through Tick, driven by the real clock, so a manipulated
// OS clock cannot jump rewards forward while the process runs.
type Clock struct {
	synced       time.Time
	lastReal     time.Time
	real         clockwork.Clock
	ledger       *ledger.Ledger
	ns           chan<- models.Notification
	sources      []*Source
	accum        time.Duration
	debugOffset  time.Duration
	tickInterval time.Duration
	retries      int
	status       Status
	mu           syncutil.RWMutex
}

// New builds a Clock from configuration. The real clock argument is the
// process-local monotonic time used to measure elapsed intervals; pass a
// clockwork fake in tests. Any previously persisted debug offset is loaded
// from the ledger.
func New(
	cfg *config.Instance,
	lg *ledger.Ledger,
	real clockwork.Clock,
	ns chan<- models.Notification,
) *Clock {
	if real == nil {
		real = clockwork.NewRealClock()
	}

	client := httpclient.NewClient()
	backoff := cfg.RetryBackoff()

	sourceCfgs := cfg.TimeSources()
	sources := make([]*Source, 0, len(sourceCfgs))
	for _, sc := range sourceCfgs {
		sources = append(sources, NewSource(sc, client, real, backoff))
	}

	c := &Clock{
		real:         real,
		ledger:       lg,
		ns:           ns,
		sources:      sources,
		retries:      cfg.MaxRetriesPerSource(),
		tickInterval: cfg.TickInterval(),
		status:       StatusUninitialized,
	}
	c.loadDebugOffset()

	return c
}

func (c *Clock) loadDebugOffset() {
	value, found, err := c.ledger.Get(DebugOffsetKey)
	if err != nil {
		log.Error().Err(err).Msg("failed to read persisted debug offset")
		return
	}
	if !found {
		return
	}

	offset, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("value", value).Msg("ignoring unparsable persisted debug offset")
		return
	}

	c.debugOffset = offset
	if offset != 0 {
		log.Info().Dur("offset", offset).Msg("loaded persisted debug offset")
	}
}

func (c *Clock) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Now returns the synchronized time plus the debug offset, or
// ErrClockUnavailable while the clock is not synchronized.
func (c *Clock) Now() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status != StatusSynchronized {
		return time.Time{}, fmt.Errorf("%w: clock status is %s", ErrClockUnavailable, c.status)
	}
	return c.synced.Add(c.debugOffset), nil
}

func (c *Clock) DebugOffset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.debugOffset
}

// Synchronize walks the configured sources in priority order and adopts the
// first successfully resolved timestamp. Remaining sources are never tried
// once one succeeds. While a synchronization is in flight tick advancement is
// paused. Cancelling the context aborts the attempt; a later call starts
// over from the first source.
func (c *Clock) Synchronize(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusSynchronizing {
		c.mu.Unlock()
		return errors.New("synchronization already in progress")
	}
	prev := c.status
	c.status = StatusSynchronizing
	c.mu.Unlock()

	if len(c.sources) == 0 {
		c.mu.Lock()
		c.status = StatusFailed
		c.mu.Unlock()
		c.notifyInitialized(false, "", time.Time{}, ErrNoSources)
		return ErrNoSources
	}

	var lastErr error
	for _, src := range c.sources {
		t, err := src.Resolve(ctx, c.retries)
		if err == nil {
			c.adopt(t)
			log.Info().
				Str("source", src.Name()).
				Time("time", t).
				Msg("clock synchronized")
			c.notifyInitialized(true, src.Name(), t, nil)
			return nil
		}

		if ctx.Err() != nil {
			// Aborted (e.g. app suspended): restore the prior state so a
			// resume restarts cleanly from the first source.
			c.mu.Lock()
			c.status = prev
			c.mu.Unlock()
			return fmt.Errorf("synchronization cancelled: %w", ctx.Err())
		}

		lastErr = err
		log.Warn().Err(err).Str("source", src.Name()).Msg("time source failed, trying next")
	}

	c.mu.Lock()
	c.status = StatusFailed
	c.mu.Unlock()

	err := fmt.Errorf("%w: %w", ErrAllSourcesExhausted, lastErr)
	log.Error().Err(err).Msg("clock synchronization failed")
	c.notifyInitialized(false, "", time.Time{}, err)
	return err
}

func (c *Clock) adopt(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.synced = t
	c.lastReal = c.real.Now()
	c.accum = 0
	c.status = StatusSynchronized
}

func (c *Clock) notifyInitialized(success bool, source string, t time.Time, err error) {
	params := models.ClockInitializedParams{
		Success: success,
		Source:  source,
	}
	if success {
		tt := t
		params.Time = &tt
	}
	if err != nil {
		params.Error = err.Error()
	}
	notifications.ClockInitialized(c.ns, params)
}

// Tick accumulates elapsed real time and, once a full tick interval has
// built up, advances the synchronized time by the accumulated amount and
// emits a tick notification. It reports the advanced amount, or zero when no
// advancement happened (not yet a full interval, or not synchronized).
func (c *Clock) Tick() (time.Time, time.Duration) {
	c.mu.Lock()
	if c.status != StatusSynchronized {
		c.mu.Unlock()
		return time.Time{}, 0
	}

	now := c.real.Now()
	c.accum += now.Sub(c.lastReal)
	c.lastReal = now

	if c.accum < c.tickInterval {
		c.mu.Unlock()
		return time.Time{}, 0
	}

	advanced := c.accum
	c.accum = 0
	c.synced = c.synced.Add(advanced)
	current := c.synced.Add(c.debugOffset)
	c.mu.Unlock()

	notifications.ClockTick(c.ns, models.ClockTickParams{
		CurrentTime:    current,
		ElapsedSeconds: advanced.Seconds(),
	})

	return current, advanced
}

// Run drives Tick at the configured cadence until the context is cancelled.
// This is the only mechanism that advances time between synchronizations;
// there is no periodic resync.
func (c *Clock) Run(ctx context.Context) {
	ticker := c.real.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			c.Tick()
		case <-ctx.Done():
			log.Debug().Msg("clock tick loop stopped")
			return
		}
	}
}

// SetDebugOffset adds delta to the debug offset and persists the result so
// it survives restarts.
func (c *Clock) SetDebugOffset(delta time.Duration) error {
	c.mu.Lock()
	c.debugOffset += delta
	offset := c.debugOffset
	c.mu.Unlock()

	log.Info().Dur("offset", offset).Msg("debug offset updated")
	if err := c.ledger.Set(DebugOffsetKey, offset.String()); err != nil {
		return fmt.Errorf("failed to persist debug offset: %w", err)
	}
	return nil
}

// ResetDebugOffset clears the debug offset and broadcasts a clock reset so
// dependents re-derive any state computed from offset time.
func (c *Clock) ResetDebugOffset() error {
	c.mu.Lock()
	c.debugOffset = 0
	c.mu.Unlock()

	log.Info().Msg("debug offset reset")
	if err := c.ledger.Set(DebugOffsetKey, time.Duration(0).String()); err != nil {
		return fmt.Errorf("failed to persist debug offset: %w", err)
	}

	notifications.ClockReset(c.ns)
	return nil
}
