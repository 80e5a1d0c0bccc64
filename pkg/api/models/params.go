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

package models

import "time"

type ClockInitializedParams struct {
	Time    *time.Time `json:"time,omitempty"`
	Source  string     `json:"source,omitempty"`
	Error   string     `json:"error,omitempty"`
	Success bool       `json:"success"`
}

type ClockTickParams struct {
	CurrentTime    time.Time `json:"currentTime"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}

type RewardClaimedParams struct {
	InstanceID string `json:"instanceId"`
	RewardID   string `json:"rewardId"`
	Name       string `json:"name,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Index      int    `json:"index"`
	Quantity   int    `json:"quantity"`
}

type RewardsResetParams struct {
	InstanceID string `json:"instanceId"`
}

type ClockStatusResponse struct {
	CurrentTime *time.Time `json:"currentTime,omitempty"`
	Status      string     `json:"status"`
	DebugOffset string     `json:"debugOffset"`
}

type ClockOffsetSetParams struct {
	Offset string `json:"offset"`
}

type RewardsInstanceParams struct {
	InstanceID string `json:"instanceId"`
}

type RewardsStatusResponse struct {
	InstanceID        string `json:"instanceId"`
	AvailableIndex    int    `json:"availableIndex"`
	StreakLength      int    `json:"streakLength"`
	CycleLength       int    `json:"cycleLength"`
	KeepOpenWhenEmpty bool   `json:"keepOpenWhenEmpty"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
