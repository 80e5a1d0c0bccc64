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

// Package methods implements the JSON-RPC methods exposed to UI consumers.
package methods

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/rewards"
	"github.com/DaystreakProject/daystreak-core/pkg/timesync"
	"github.com/google/uuid"
)

// ErrUnknownInstance is returned for methods referencing an instance id with
// no active controller.
var ErrUnknownInstance = errors.New("unknown reward instance id")

// RequestEnv carries everything a method handler may need.
type RequestEnv struct {
	Clock    *timesync.Clock
	Registry *rewards.Registry
	Config   *config.Instance
	Params   json.RawMessage
	ID       uuid.UUID
}

// Handler is a JSON-RPC method implementation.
type Handler func(env RequestEnv) (any, error)

func HandleVersion(_ RequestEnv) (any, error) {
	return models.VersionResponse{Version: config.AppVersion}, nil
}

func HandleClockStatus(env RequestEnv) (any, error) {
	resp := models.ClockStatusResponse{
		Status:      env.Clock.Status().String(),
		DebugOffset: env.Clock.DebugOffset().String(),
	}
	if now, err := env.Clock.Now(); err == nil {
		resp.CurrentTime = &now
	}
	return resp, nil
}

func HandleClockOffsetSet(env RequestEnv) (any, error) {
	var params models.ClockOffsetSetParams
	if err := json.Unmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	delta, err := time.ParseDuration(params.Offset)
	if err != nil {
		return nil, fmt.Errorf("invalid offset duration: %w", err)
	}

	if err := env.Clock.SetDebugOffset(delta); err != nil {
		return nil, err
	}
	return env.Clock.DebugOffset().String(), nil
}

func HandleClockOffsetReset(env RequestEnv) (any, error) {
	if err := env.Clock.ResetDebugOffset(); err != nil {
		return nil, err
	}
	return nil, nil //nolint:nilnil // JSON-RPC null result
}

func instanceFromParams(env RequestEnv) (*rewards.Controller, error) {
	var params models.RewardsInstanceParams
	if err := json.Unmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	ctrl, ok := env.Registry.Get(params.InstanceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, params.InstanceID)
	}
	return ctrl, nil
}

func statusOf(ctrl *rewards.Controller) (models.RewardsStatusResponse, error) {
	available, err := ctrl.CheckEligibility()
	if err != nil {
		return models.RewardsStatusResponse{}, err
	}

	return models.RewardsStatusResponse{
		InstanceID:        ctrl.InstanceID(),
		AvailableIndex:    available,
		StreakLength:      ctrl.StreakLength(),
		CycleLength:       ctrl.CycleLength(),
		KeepOpenWhenEmpty: ctrl.KeepOpenWhenEmpty(),
	}, nil
}

// HandleRewardsStatus returns eligibility for one instance, or for every
// active instance when no instance id is given.
func HandleRewardsStatus(env RequestEnv) (any, error) {
	if len(env.Params) > 0 {
		var params models.RewardsInstanceParams
		if err := json.Unmarshal(env.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		if params.InstanceID != "" {
			ctrl, ok := env.Registry.Get(params.InstanceID)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownInstance, params.InstanceID)
			}
			return statusOf(ctrl)
		}
	}

	all := env.Registry.All()
	statuses := make([]models.RewardsStatusResponse, 0, len(all))
	for _, ctrl := range all {
		status, err := statusOf(ctrl)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func HandleRewardsClaim(env RequestEnv) (any, error) {
	ctrl, err := instanceFromParams(env)
	if err != nil {
		return nil, err
	}

	reward, index, err := ctrl.Claim()
	if err != nil {
		return nil, err
	}

	return models.RewardClaimedParams{
		InstanceID: ctrl.InstanceID(),
		Index:      index,
		RewardID:   reward.ID,
		Name:       reward.Name,
		Icon:       reward.Icon,
		Quantity:   reward.Quantity,
	}, nil
}

func HandleRewardsReset(env RequestEnv) (any, error) {
	ctrl, err := instanceFromParams(env)
	if err != nil {
		return nil, err
	}

	if err := ctrl.Reset(); err != nil {
		return nil, err
	}
	return nil, nil //nolint:nilnil // JSON-RPC null result
}
