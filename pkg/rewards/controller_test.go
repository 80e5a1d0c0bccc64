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
	"path/filepath"
	"testing"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/database/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClock returns a fixed, adjustable time, standing in for the
// synchronized clock.
type stubClock struct {
	now time.Time
	err error
}

func (s *stubClock) Now() (time.Time, error) {
	if s.err != nil {
		return time.Time{}, s.err
	}
	return s.now, nil
}

func testCycle(length int, resetOnMiss bool) config.Cycle {
	cycle := config.Cycle{
		InstanceID:  "daily",
		ResetOnMiss: resetOnMiss,
	}
	for i := range length {
		cycle.Rewards = append(cycle.Rewards, config.Reward{
			ID:       "coins_" + string(rune('a'+i)),
			Name:     "Coins",
			Quantity: (i + 1) * 10,
		})
	}
	return cycle
}

func newTestController(
	t *testing.T,
	cycle config.Cycle,
	clk Clock,
) (*Controller, *ledger.Ledger, chan models.Notification) {
	t.Helper()

	lg, err := ledger.Open(filepath.Join(t.TempDir(), ledger.DBFile))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, lg.Close())
	})

	ns := make(chan models.Notification, 16)
	return NewController(cycle, lg, clk, ns), lg, ns
}

func TestCheckEligibilityFreshStart(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, _ := newTestController(t, testCycle(7, true), clk)

	available, err := ctrl.CheckEligibility()
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestCheckEligibilityDoesNotMutateHistory(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, lg, _ := newTestController(t, testCycle(7, true), clk)

	for range 5 {
		available, err := ctrl.CheckEligibility()
		require.NoError(t, err)
		assert.Equal(t, 1, available)
	}

	_, found, err := lg.Get("rewards.daily.last_index")
	require.NoError(t, err)
	assert.False(t, found, "eligibility checks must not write history")
}

func TestClaimSequenceAndWrap(t *testing.T) {
	t.Parallel()

	const cycleLength = 7
	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, ns := newTestController(t, testCycle(cycleLength, true), clk)

	for day := range cycleLength {
		reward, index, err := ctrl.Claim()
		require.NoError(t, err, "day %d", day)
		assert.Equal(t, day+1, index)
		assert.Equal(t, (day+1)*10, reward.Quantity)

		notif := <-ns
		assert.Equal(t, models.NotificationRewardClaimed, notif.Method)

		// Immediately after a claim nothing is available.
		available, err := ctrl.CheckEligibility()
		require.NoError(t, err)
		assert.Equal(t, 0, available)

		clk.now = clk.now.Add(24 * time.Hour)
	}

	// Day after a full cycle wraps to index 1.
	_, index, err := ctrl.Claim()
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestClaimTwiceSameDay(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, _ := newTestController(t, testCycle(7, true), clk)

	_, _, err := ctrl.Claim()
	require.NoError(t, err)

	clk.now = clk.now.Add(2 * time.Hour)
	_, _, err = ctrl.Claim()
	require.ErrorIs(t, err, ErrNothingAvailable)
}

func TestClaimAfterMissResets(t *testing.T) {
	t.Parallel()

	// Claim day 0 (index 1) and day 1 (index 2), skip to day 4: a 3-day gap
	// with reset_on_miss drops availability back to index 1.
	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, _ := newTestController(t, testCycle(7, true), clk)

	_, index, err := ctrl.Claim()
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	clk.now = clk.now.Add(24 * time.Hour)
	_, index, err = ctrl.Claim()
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	clk.now = clk.now.Add(3 * 24 * time.Hour)
	available, err := ctrl.CheckEligibility()
	require.NoError(t, err)
	assert.Equal(t, 1, available)
}

func TestClaimAfterMissWithoutReset(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, _ := newTestController(t, testCycle(7, false), clk)

	_, _, err := ctrl.Claim()
	require.NoError(t, err)

	clk.now = clk.now.Add(3 * 24 * time.Hour)
	available, err := ctrl.CheckEligibility()
	require.NoError(t, err)
	assert.Equal(t, 0, available)

	_, _, err = ctrl.Claim()
	require.ErrorIs(t, err, ErrNothingAvailable)
}

func TestClaimPersistsBothFieldsAtomically(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := &stubClock{now: now}
	ctrl, lg, _ := newTestController(t, testCycle(7, true), clk)

	_, _, err := ctrl.Claim()
	require.NoError(t, err)

	idxVal, found, err := lg.Get("rewards.daily.last_index")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "1", idxVal)

	atVal, found, err := lg.Get("rewards.daily.last_claimed_at")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, now.Format(time.RFC3339Nano), atVal)
}

func TestClaimSurvivesRestart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := &stubClock{now: now}

	dbPath := filepath.Join(t.TempDir(), ledger.DBFile)
	lg, err := ledger.Open(dbPath)
	require.NoError(t, err)

	ns := make(chan models.Notification, 16)
	ctrl := NewController(testCycle(7, true), lg, clk, ns)

	_, _, err = ctrl.Claim()
	require.NoError(t, err)
	require.NoError(t, lg.Close())

	// New ledger and controller over the same file, next day.
	lg, err = ledger.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, lg.Close())
	}()

	clk.now = now.Add(24 * time.Hour)
	ctrl = NewController(testCycle(7, true), lg, clk, ns)

	available, err := ctrl.CheckEligibility()
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestResetRoundTrip(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, ns := newTestController(t, testCycle(7, true), clk)

	_, _, err := ctrl.Claim()
	require.NoError(t, err)
	<-ns

	require.NoError(t, ctrl.Reset())

	notif := <-ns
	assert.Equal(t, models.NotificationRewardsReset, notif.Method)

	available, err := ctrl.CheckEligibility()
	require.NoError(t, err)
	assert.Equal(t, 1, available, "reset returns to fresh-start state")
}

func TestClaimFailsWhenClockUnavailable(t *testing.T) {
	t.Parallel()

	clk := &stubClock{err: assert.AnError}
	ctrl, _, _ := newTestController(t, testCycle(7, true), clk)

	_, err := ctrl.CheckEligibility()
	require.ErrorIs(t, err, assert.AnError)

	_, _, err = ctrl.Claim()
	require.ErrorIs(t, err, assert.AnError)
}

func TestStreakLength(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrl, _, _ := newTestController(t, testCycle(7, true), clk)

	assert.Equal(t, 0, ctrl.StreakLength(), "no claims yet")

	_, _, err := ctrl.Claim()
	require.NoError(t, err)
	assert.Equal(t, 1, ctrl.StreakLength())

	clk.now = clk.now.Add(24 * time.Hour)
	_, _, err = ctrl.Claim()
	require.NoError(t, err)
	assert.Equal(t, 2, ctrl.StreakLength())

	// Under two days since the last claim the streak still shows.
	clk.now = clk.now.Add(47 * time.Hour)
	assert.Equal(t, 2, ctrl.StreakLength())

	clk.now = clk.now.Add(2 * time.Hour)
	assert.Equal(t, 0, ctrl.StreakLength(), "streak broken after two days")
}

func TestRegistryRefusesDuplicates(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctrlA, lg, ns := newTestController(t, testCycle(7, true), clk)
	ctrlB := NewController(testCycle(7, true), lg, clk, ns)

	registry := NewRegistry()
	require.NoError(t, registry.Register(ctrlA))

	err := registry.Register(ctrlB)
	require.ErrorIs(t, err, ErrDuplicateInstance)

	// The original stays active.
	got, ok := registry.Get("daily")
	require.True(t, ok)
	assert.Same(t, ctrlA, got)

	registry.Unregister("daily")
	require.NoError(t, registry.Register(ctrlB))
}
