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

package helpers

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDirName = "daystreak"

// UserDirEnv overrides both the config and data directories, mainly for
// running multiple isolated instances side by side.
const UserDirEnv = "DAYSTREAK_USER_DIR"

// ConfigDir returns the directory where the config file is stored.
func ConfigDir() string {
	if dir, ok := os.LookupEnv(UserDirEnv); ok && dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, appDirName)
}

// DataDir returns the directory where the ledger database and logs are
// stored.
func DataDir() string {
	if dir, ok := os.LookupEnv(UserDirEnv); ok && dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, appDirName)
}
