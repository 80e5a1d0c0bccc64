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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/helpers/syncutil"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "DAYSTREAK_CFG"
	CfgFile       = "daystreak.toml"

	defaultTickInterval = 150 * time.Millisecond
	defaultRetryBackoff = 500 * time.Millisecond
	defaultMaxRetries   = 3
	defaultAPIPort      = 7518
)

type Values struct {
	Service      Service  `toml:"service,omitempty"`
	TimeSync     TimeSync `toml:"timesync,omitempty"`
	Rewards      Rewards  `toml:"rewards,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Service struct {
	APIPort int `toml:"api_port,omitempty" validate:"omitempty,min=1,max=65535"`
}

type TimeSync struct {
	TickInterval        string       `toml:"tick_interval,omitempty"`
	RetryBackoff        string       `toml:"retry_backoff,omitempty"`
	Sources             []TimeSource `toml:"source,omitempty" validate:"dive"`
	MaxRetriesPerSource int          `toml:"max_retries_per_source,omitempty" validate:"omitempty,min=1"`
}

// TimeSource describes one remote time endpoint. Sources are tried in the
// order they appear in the config file.
type TimeSource struct {
	Name      string `toml:"name" validate:"required"`
	URL       string `toml:"url" validate:"required,url"`
	JSONField string `toml:"json_field" validate:"required"`
}

type Rewards struct {
	Cycles []Cycle `toml:"cycle,omitempty" validate:"dive"`
}

// Cycle is one independent reward cycle, e.g. a daily login bonus. The
// instance id namespaces all of its persisted state.
type Cycle struct {
	InstanceID        string   `toml:"instance_id" validate:"required"`
	Rewards           []Reward `toml:"reward,omitempty" validate:"min=1,dive"`
	ResetOnMiss       bool     `toml:"reset_on_miss"`
	KeepOpenWhenEmpty bool     `toml:"keep_open_when_empty"`
}

type Reward struct {
	ID       string `toml:"id" validate:"required"`
	Name     string `toml:"name,omitempty"`
	Icon     string `toml:"icon,omitempty"`
	Quantity int    `toml:"quantity" validate:"min=1"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Service: Service{
		APIPort: defaultAPIPort,
	},
	TimeSync: TimeSync{
		TickInterval:        "150ms",
		RetryBackoff:        "500ms",
		MaxRetriesPerSource: defaultMaxRetries,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return ErrMissingConfigPath
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath) // #nosec G304 - path from app config env
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err := validateValues(&newVals); err != nil {
		return err
	}

	c.vals = newVals

	if c.vals.DebugLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return ErrMissingConfigPath
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(c.cfgPath, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIPort <= 0 {
		return defaultAPIPort
	}
	return c.vals.Service.APIPort
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// TimeSources returns the ordered list of configured time sources. The order
// in the config file is the fallback priority order.
func (c *Instance) TimeSources() []TimeSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sources := make([]TimeSource, len(c.vals.TimeSync.Sources))
	copy(sources, c.vals.TimeSync.Sources)
	return sources
}

func (c *Instance) MaxRetriesPerSource() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.TimeSync.MaxRetriesPerSource < 1 {
		return defaultMaxRetries
	}
	return c.vals.TimeSync.MaxRetriesPerSource
}

func (c *Instance) TickInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, err := time.ParseDuration(c.vals.TimeSync.TickInterval)
	if err != nil || d <= 0 {
		return defaultTickInterval
	}
	return d
}

func (c *Instance) RetryBackoff() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, err := time.ParseDuration(c.vals.TimeSync.RetryBackoff)
	if err != nil || d < 0 {
		return defaultRetryBackoff
	}
	return d
}

// RewardCycles returns a copy of every configured reward cycle.
func (c *Instance) RewardCycles() []Cycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cycles := make([]Cycle, len(c.vals.Rewards.Cycles))
	copy(cycles, c.vals.Rewards.Cycles)
	return cycles
}
