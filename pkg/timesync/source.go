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

package timesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DaystreakProject/daystreak-core/pkg/config"
	"github.com/DaystreakProject/daystreak-core/pkg/shared/httpclient"
	"github.com/buger/jsonparser"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSourceUnreachable covers transport failures and non-200 responses.
	ErrSourceUnreachable = errors.New("time source unreachable")
	// ErrMalformedResponse covers responses where the configured field is
	// missing or does not parse as a timestamp. Treated the same as
	// unreachable for fallback purposes.
	ErrMalformedResponse = errors.New("malformed time source response")
)

// maxResponseBytes caps how much of a time source response is read.
const maxResponseBytes = 1 << 20

// timeLayouts are tried in order when parsing the extracted field.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
}

// Source fetches timestamps from one configured remote endpoint.
type Source struct {
	client  *httpclient.Client
	clock   clockwork.Clock
	cfg     config.TimeSource
	backoff time.Duration
}

// NewSource wraps one time source config. The clock is only used to sleep
// between retry attempts so tests can run without real delays.
func NewSource(
	cfg config.TimeSource,
	client *httpclient.Client,
	clock clockwork.Clock,
	backoff time.Duration,
) *Source {
	if client == nil {
		client = httpclient.NewClient()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Source{
		cfg:     cfg,
		client:  client,
		clock:   clock,
		backoff: backoff,
	}
}

func (s *Source) Name() string {
	return s.cfg.Name
}

// Resolve fetches the current time from the source, retrying up to retries
// total attempts with a fixed backoff between them. The last attempt's error
// is returned once the budget is exhausted.
func (s *Source) Resolve(ctx context.Context, retries int) (time.Time, error) {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		t, err := s.fetch(ctx)
		if err == nil {
			return t, nil
		}
		lastErr = err

		log.Warn().
			Err(err).
			Str("source", s.cfg.Name).
			Int("attempt", attempt).
			Int("budget", retries).
			Msg("time source fetch failed")

		if ctx.Err() != nil {
			return time.Time{}, fmt.Errorf("time source %q cancelled: %w", s.cfg.Name, ctx.Err())
		}

		if attempt < retries && s.backoff > 0 {
			select {
			case <-ctx.Done():
				return time.Time{}, fmt.Errorf("time source %q cancelled: %w", s.cfg.Name, ctx.Err())
			case <-s.clock.After(s.backoff):
			}
		}
	}

	return time.Time{}, fmt.Errorf("time source %q exhausted %d attempts: %w", s.cfg.Name, retries, lastErr)
}

func (s *Source) fetch(ctx context.Context) (time.Time, error) {
	resp, err := s.client.Get(ctx, s.cfg.URL)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrSourceUnreachable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing time source response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("%w: status code %d", ErrSourceUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reading body: %w", ErrSourceUnreachable, err)
	}

	value, err := jsonparser.GetString(body, strings.Split(s.cfg.JSONField, ".")...)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: field %q: %w", ErrMalformedResponse, s.cfg.JSONField, err)
	}

	t, err := parseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return t, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", value)
}
