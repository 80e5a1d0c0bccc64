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

package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrMissingConfigPath = errors.New("config path not set")

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateValues checks struct-level constraints plus rules the validator
// tags cannot express: reward cycle instance ids must be unique, since they
// namespace persisted claim state.
func validateValues(vals *Values) error {
	if err := validate.Struct(vals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(vals.Rewards.Cycles))
	for i := range vals.Rewards.Cycles {
		id := vals.Rewards.Cycles[i].InstanceID
		if seen[id] {
			return fmt.Errorf("invalid config: duplicate reward cycle instance id %q", id)
		}
		seen[id] = true
	}

	return nil
}
