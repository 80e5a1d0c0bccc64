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

// Package rewards implements streak-based periodic rewards: a pure
// eligibility engine plus controllers that persist claim history and emit
// claim notifications.
package rewards

import "time"

// Day is the claim period. Eligibility is computed from pure elapsed
// duration, not calendar day boundaries.
const Day = 24 * time.Hour

// Evaluate returns the reward index (1-based) claimable at now, or 0 when
// nothing is claimable. lastIndex and lastAt come from persisted claim
// history; a zero lastAt means never claimed.
//
// Exactly one full day since the last claim continues the streak, wrapping
// to 1 after cycleLength. Two or more days means a miss: with resetOnMiss
// the cycle restarts at 1, without it nothing is claimable (progress is
// neither advanced nor discarded). If now is earlier than lastAt, e.g. after
// resyncing to an earlier server time, nothing changes and nothing is
// claimable.
func Evaluate(lastIndex int, lastAt, now time.Time, cycleLength int, resetOnMiss bool) int {
	if cycleLength < 1 {
		return 0
	}

	if lastAt.IsZero() {
		return 1
	}

	elapsed := now.Sub(lastAt)
	if elapsed < 0 {
		return 0
	}

	days := int(elapsed / Day)
	switch {
	case days == 0:
		// Already claimed within this period.
		return 0
	case days == 1:
		if lastIndex >= cycleLength {
			return 1
		}
		return lastIndex + 1
	default:
		if resetOnMiss {
			return 1
		}
		return 0
	}
}
