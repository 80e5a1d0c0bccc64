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

package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), DBFile)
	lg, err := Open(path)
	require.NoError(t, err)
	return lg, path
}

func TestSetGetDelete(t *testing.T) {
	t.Parallel()

	lg, _ := openTestLedger(t)
	defer func() {
		require.NoError(t, lg.Close())
	}()

	_, found, err := lg.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, lg.Set("rewards.daily.last_index", "3"))

	value, found, err := lg.Get("rewards.daily.last_index")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "3", value)

	require.NoError(t, lg.Delete("rewards.daily.last_index"))

	_, found, err = lg.Get("rewards.daily.last_index")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error.
	require.NoError(t, lg.Delete("rewards.daily.last_index"))
}

func TestSetAllWritesEveryKey(t *testing.T) {
	t.Parallel()

	lg, _ := openTestLedger(t)
	defer func() {
		require.NoError(t, lg.Close())
	}()

	err := lg.SetAll(map[string]string{
		"rewards.daily.last_index":      "5",
		"rewards.daily.last_claimed_at": "2026-03-01T09:00:00Z",
	})
	require.NoError(t, err)

	for key, want := range map[string]string{
		"rewards.daily.last_index":      "5",
		"rewards.daily.last_claimed_at": "2026-03-01T09:00:00Z",
	} {
		value, found, err := lg.Get(key)
		require.NoError(t, err)
		require.True(t, found, key)
		assert.Equal(t, want, value)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	t.Parallel()

	lg, path := openTestLedger(t)
	require.NoError(t, lg.Set("clock.debug_offset", "26h0m0s"))
	require.NoError(t, lg.Flush())
	require.NoError(t, lg.Close())

	lg, err := Open(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, lg.Close())
	}()

	value, found, err := lg.Get("clock.debug_offset")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "26h0m0s", value)
}

func TestNamespacedKeysAreIndependent(t *testing.T) {
	t.Parallel()

	lg, _ := openTestLedger(t)
	defer func() {
		require.NoError(t, lg.Close())
	}()

	require.NoError(t, lg.Set("rewards.daily.last_index", "2"))
	require.NoError(t, lg.Set("rewards.weekly.last_index", "6"))

	require.NoError(t, lg.Delete("rewards.daily.last_index"))

	value, found, err := lg.Get("rewards.weekly.last_index")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "6", value)
}
