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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	b.Start()

	chanA, _ := b.Subscribe(4)
	chanB, _ := b.Subscribe(4)

	source <- models.Notification{Method: models.NotificationClockTick}

	for _, ch := range []<-chan models.Notification{chanA, chanB} {
		select {
		case notif := <-ch:
			assert.Equal(t, models.NotificationClockTick, notif.Method)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	b.Start()

	ch, id := b.Subscribe(1)
	b.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing again is a no-op.
	b.Unsubscribe(id)
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	b.Start()

	// Zero-buffer subscriber never reads; its notifications drop.
	_, _ = b.Subscribe(0)
	healthy, _ := b.Subscribe(4)

	for range 3 {
		source <- models.Notification{Method: models.NotificationClockTick}
	}

	received := 0
	for received < 3 {
		select {
		case <-healthy:
			received++
		case <-time.After(time.Second):
			t.Fatalf("healthy subscriber starved, got %d of 3", received)
		}
	}
}

func TestSourceCloseShutsDownSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification)
	b := NewBroker(ctx, source)
	b.Start()

	ch, _ := b.Subscribe(1)
	close(source)

	select {
	case _, open := <-ch:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed after source close")
	}
}
