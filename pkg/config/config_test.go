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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, CfgFile))
	require.NoError(t, err, "default config file written on first run")

	assert.Equal(t, 150*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff())
	assert.Equal(t, 3, cfg.MaxRetriesPerSource())
	assert.Empty(t, cfg.TimeSources())
	assert.Empty(t, cfg.RewardCycles())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, CfgFile), []byte(content), 0o600)
	require.NoError(t, err)
	return dir
}

func TestLoadFullConfig(t *testing.T) {
	dir := writeConfig(t, `
config_schema = 1
debug_logging = false

[service]
api_port = 9000

[timesync]
tick_interval = "250ms"
retry_backoff = "1s"
max_retries_per_source = 5

[[timesync.source]]
name = "worldtime"
url = "https://worldtimeapi.org/api/ip"
json_field = "datetime"

[[timesync.source]]
name = "backup"
url = "https://timeapi.example.com/now"
json_field = "data.currentDateTime"

[[rewards.cycle]]
instance_id = "daily"
reset_on_miss = true
keep_open_when_empty = true

[[rewards.cycle.reward]]
id = "coins_small"
name = "Small coin pouch"
quantity = 100

[[rewards.cycle.reward]]
id = "coins_large"
name = "Large coin pouch"
quantity = 500
`)

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort())
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, time.Second, cfg.RetryBackoff())
	assert.Equal(t, 5, cfg.MaxRetriesPerSource())

	sources := cfg.TimeSources()
	require.Len(t, sources, 2)
	assert.Equal(t, "worldtime", sources[0].Name)
	assert.Equal(t, "data.currentDateTime", sources[1].JSONField)

	cycles := cfg.RewardCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, "daily", cycles[0].InstanceID)
	assert.True(t, cycles[0].ResetOnMiss)
	assert.True(t, cycles[0].KeepOpenWhenEmpty)
	require.Len(t, cycles[0].Rewards, 2)
	assert.Equal(t, 500, cycles[0].Rewards[1].Quantity)
}

func TestLoadRejectsInvalidSourceURL(t *testing.T) {
	dir := writeConfig(t, `
[[timesync.source]]
name = "broken"
url = "not a url"
json_field = "datetime"
`)

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
}

func TestLoadRejectsZeroQuantityReward(t *testing.T) {
	dir := writeConfig(t, `
[[rewards.cycle]]
instance_id = "daily"

[[rewards.cycle.reward]]
id = "nothing"
quantity = 0
`)

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
}

func TestLoadRejectsDuplicateInstanceIDs(t *testing.T) {
	dir := writeConfig(t, `
[[rewards.cycle]]
instance_id = "daily"

[[rewards.cycle.reward]]
id = "a"
quantity = 1

[[rewards.cycle]]
instance_id = "daily"

[[rewards.cycle.reward]]
id = "b"
quantity = 1
`)

	_, err := NewConfig(dir, BaseDefaults)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate reward cycle instance id")
}

func TestAccessorFallbacks(t *testing.T) {
	dir := writeConfig(t, `
[timesync]
tick_interval = "banana"
retry_backoff = "-2s"
`)

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, 150*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetDebugLogging(true)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.True(t, reloaded.DebugLogging())
}
