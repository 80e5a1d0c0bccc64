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

package rewards

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/api/notifications"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/database/ledger"
	"github.com/DaystreakProject/daystreak-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNothingAvailable is returned by Claim when no reward is claimable.
	ErrNothingAvailable = errors.New("no reward available to claim")
	// ErrIndexOutOfRange is returned by Claim if the computed index exceeds
	// the configured reward count. Unreachable given the engine invariants,
	// kept as a guard against corrupted history.
	ErrIndexOutOfRange = errors.New("available reward index out of range")
)

// Clock is the authoritative time dependency. Now fails while no
// synchronized time is available; the controller propagates that instead of
// falling back to local time.
type Clock interface {
	Now() (time.Time, error)
}

// Controller orchestrates one reward cycle instance: it evaluates
// eligibility from ledger-persisted history and performs claims. All ledger
// keys are namespaced by the instance id so independent cycles coexist.
type Controller struct {
	clock      Clock
	ledger     *ledger.Ledger
	ns         chan<- models.Notification
	id         string
	cycle      config.Cycle
	cached     int
	cacheValid bool
	mu         syncutil.Mutex
}

// NewController builds a controller for one configured cycle. Use
// Registry.Register to activate it; controllers sharing an instance id must
// never be active simultaneously.
func NewController(
	cycle config.Cycle,
	lg *ledger.Ledger,
	clock Clock,
	ns chan<- models.Notification,
) *Controller {
	return &Controller{
		id:     cycle.InstanceID,
		cycle:  cycle,
		ledger: lg,
		clock:  clock,
		ns:     ns,
	}
}

func (c *Controller) InstanceID() string {
	return c.id
}

func (c *Controller) CycleLength() int {
	return len(c.cycle.Rewards)
}

func (c *Controller) KeepOpenWhenEmpty() bool {
	return c.cycle.KeepOpenWhenEmpty
}

func (c *Controller) keyLastIndex() string {
	return "rewards." + c.id + ".last_index"
}

func (c *Controller) keyLastClaimedAt() string {
	return "rewards." + c.id + ".last_claimed_at"
}

// history loads persisted claim state. Absent keys mean never claimed.
func (c *Controller) history() (lastIndex int, lastAt time.Time, err error) {
	idxVal, found, err := c.ledger.Get(c.keyLastIndex())
	if err != nil {
		return 0, time.Time{}, err
	}
	if found {
		lastIndex, err = strconv.Atoi(idxVal)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("corrupt last claimed index %q: %w", idxVal, err)
		}
	}

	atVal, found, err := c.ledger.Get(c.keyLastClaimedAt())
	if err != nil {
		return 0, time.Time{}, err
	}
	if found {
		lastAt, err = time.Parse(time.RFC3339Nano, atVal)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("corrupt last claimed time %q: %w", atVal, err)
		}
	}

	return lastIndex, lastAt, nil
}

// CheckEligibility returns the currently claimable reward index, or 0 when
// nothing is claimable. It never mutates persisted history.
func (c *Controller) CheckEligibility() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkLocked()
}

func (c *Controller) checkLocked() (int, error) {
	now, err := c.clock.Now()
	if err != nil {
		return 0, err
	}

	lastIndex, lastAt, err := c.history()
	if err != nil {
		return 0, err
	}

	available := Evaluate(lastIndex, lastAt, now, len(c.cycle.Rewards), c.cycle.ResetOnMiss)
	c.cached = available
	c.cacheValid = true
	return available, nil
}

// Claim attempts to claim the currently available reward, returning the
// reward and its index. On success both history fields are persisted in one
// transaction before the claim notification fires, so observers that
// immediately re-query see consistent state. The whole read-decide-write
// sequence holds the controller mutex.
func (c *Controller) Claim() (config.Reward, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	available, err := c.checkLocked()
	if err != nil {
		return config.Reward{}, 0, err
	}

	if available == 0 {
		return config.Reward{}, 0, ErrNothingAvailable
	}
	if available > len(c.cycle.Rewards) {
		return config.Reward{}, 0, fmt.Errorf("%w: index %d of %d rewards",
			ErrIndexOutOfRange, available, len(c.cycle.Rewards))
	}

	now, err := c.clock.Now()
	if err != nil {
		return config.Reward{}, 0, err
	}

	err = c.ledger.SetAll(map[string]string{
		c.keyLastIndex():     strconv.Itoa(available),
		c.keyLastClaimedAt(): now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return config.Reward{}, 0, fmt.Errorf("failed to persist claim: %w", err)
	}

	reward := c.cycle.Rewards[available-1]
	log.Info().
		Str("instance", c.id).
		Int("index", available).
		Str("reward", reward.ID).
		Msg("reward claimed")

	notifications.RewardClaimed(c.ns, models.RewardClaimedParams{
		InstanceID: c.id,
		Index:      available,
		RewardID:   reward.ID,
		Name:       reward.Name,
		Icon:       reward.Icon,
		Quantity:   reward.Quantity,
	})

	// Post-claim re-check: the available index drops to 0 until the next
	// eligible day.
	if _, err := c.checkLocked(); err != nil {
		log.Warn().Err(err).Str("instance", c.id).Msg("post-claim eligibility check failed")
	}

	return reward, available, nil
}

// Reset deletes all persisted history for this instance, returning it to the
// never-claimed state. Intended for testing and support tooling.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Delete(c.keyLastIndex(), c.keyLastClaimedAt()); err != nil {
		return fmt.Errorf("failed to reset claim history: %w", err)
	}

	c.cached = 0
	c.cacheValid = false

	log.Info().Str("instance", c.id).Msg("claim history reset")
	notifications.RewardsReset(c.ns, c.id)
	return nil
}

// StreakLength returns the display streak: the last claimed index while the
// streak is still alive (under two days since the last claim), 0 once it is
// broken. Independent of the availability computation.
func (c *Controller) StreakLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now, err := c.clock.Now()
	if err != nil {
		return 0
	}

	lastIndex, lastAt, err := c.history()
	if err != nil || lastAt.IsZero() {
		return 0
	}

	if now.Sub(lastAt) < 2*Day {
		return lastIndex
	}
	return 0
}

// InvalidateCache drops the cached eligibility result. Called when the clock
// is reset so the next query re-derives state from scratch.
func (c *Controller) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = 0
	c.cacheValid = false
}
