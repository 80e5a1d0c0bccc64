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

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	NotificationClockInitialized = "clock.initialized"
	NotificationClockTick        = "clock.tick"
	NotificationClockReset       = "clock.reset"
	NotificationRewardClaimed    = "rewards.claimed"
	NotificationRewardsReset     = "rewards.reset"
)

const (
	MethodClockStatus      = "clock.status"
	MethodClockOffsetSet   = "clock.offset.set"
	MethodClockOffsetReset = "clock.offset.reset"
	MethodRewardsStatus    = "rewards.status"
	MethodRewardsClaim     = "rewards.claim"
	MethodRewardsReset     = "rewards.reset"
	MethodVersion          = "version"
)

// Notification is a one-way message from the core to any connected consumer.
type Notification struct {
	Params any
	Method string
}

type RequestObject struct {
	Params  json.RawMessage `json:"params,omitempty"`
	ID      *uuid.UUID      `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      uuid.UUID    `json:"id"`
}

// NotificationObject frames an outgoing Notification as a JSON-RPC request
// without an id.
type NotificationObject struct {
	Params  any    `json:"params,omitempty"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
}
