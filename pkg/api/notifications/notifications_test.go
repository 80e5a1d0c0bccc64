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

package notifications

import (
	"testing"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitHelpers(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 8)

	ClockTick(ns, models.ClockTickParams{
		CurrentTime:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ElapsedSeconds: 0.15,
	})
	ClockReset(ns)
	RewardClaimed(ns, models.RewardClaimedParams{InstanceID: "daily", Index: 3})
	RewardsReset(ns, "daily")

	notif := <-ns
	assert.Equal(t, models.NotificationClockTick, notif.Method)

	notif = <-ns
	assert.Equal(t, models.NotificationClockReset, notif.Method)
	assert.Nil(t, notif.Params)

	notif = <-ns
	assert.Equal(t, models.NotificationRewardClaimed, notif.Method)
	claimed, ok := notif.Params.(models.RewardClaimedParams)
	require.True(t, ok)
	assert.Equal(t, 3, claimed.Index)

	notif = <-ns
	assert.Equal(t, models.NotificationRewardsReset, notif.Method)
	reset, ok := notif.Params.(models.RewardsResetParams)
	require.True(t, ok)
	assert.Equal(t, "daily", reset.InstanceID)
}
