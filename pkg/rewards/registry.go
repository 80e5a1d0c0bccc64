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
	"errors"
	"fmt"
	"slices"

	"github.com/DaystreakProject/daystreak-core/pkg/helpers/syncutil"
)

// ErrDuplicateInstance is returned when registering a controller whose
// instance id is already active. Two live controllers on the same id would
// race on the same ledger keys, so the duplicate is refused outright.
var ErrDuplicateInstance = errors.New("reward instance id already registered")

// Registry is the directory of active controllers, keyed by instance id.
type Registry struct {
	controllers map[string]*Controller
	mu          syncutil.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		controllers: make(map[string]*Controller),
	}
}

// Register activates a controller. Registering an id that is already active
// fails and leaves the existing controller in place.
func (r *Registry) Register(c *Controller) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.controllers[c.InstanceID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateInstance, c.InstanceID())
	}

	r.controllers[c.InstanceID()] = c
	return nil
}

// Unregister removes a controller, allowing the id to be reused.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.controllers, id)
}

// Get returns the active controller for id, if any.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.controllers[id]
	return c, ok
}

// All returns the active controllers sorted by instance id.
func (r *Registry) All() []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.controllers))
	for id := range r.controllers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	all := make([]*Controller, 0, len(ids))
	for _, id := range ids {
		all = append(all, r.controllers[id])
	}
	return all
}
