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

// Package notifications contains typed helpers for emitting core
// notifications on the service notification channel.
package notifications

import "github.com/DaystreakProject/daystreak-core/pkg/api/models"

func ClockInitialized(ns chan<- models.Notification, payload models.ClockInitializedParams) {
	ns <- models.Notification{
		Method: models.NotificationClockInitialized,
		Params: payload,
	}
}

func ClockTick(ns chan<- models.Notification, payload models.ClockTickParams) {
	ns <- models.Notification{
		Method: models.NotificationClockTick,
		Params: payload,
	}
}

func ClockReset(ns chan<- models.Notification) {
	ns <- models.Notification{
		Method: models.NotificationClockReset,
	}
}

func RewardClaimed(ns chan<- models.Notification, payload models.RewardClaimedParams) {
	ns <- models.Notification{
		Method: models.NotificationRewardClaimed,
		Params: payload,
	}
}

func RewardsReset(ns chan<- models.Notification, instanceID string) {
	ns <- models.Notification{
		Method: models.NotificationRewardsReset,
		Params: models.RewardsResetParams{InstanceID: instanceID},
	}
}
