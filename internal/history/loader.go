// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// DefaultLimit is how many recent readings a fetch asks for.
const DefaultLimit = 200

var ErrUnavailable = errors.New("history temporarily unavailable")

// Fetcher returns up to limit of the most recent readings of a principal.
type Fetcher interface {
	Fetch(ctx context.Context, principal string, limit int) ([]reading.Stored, error)
}

// Loader fetches readings and turns them into newest-first records. Fetches
// run behind a circuit breaker so a failing store is not hammered by every
// page load.
type Loader struct {
	fetcher Fetcher
	loc     *time.Location
	cb      *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// NewLoader wraps f.
func NewLoader(f Fetcher, loc *time.Location, logger *slog.Logger) *Loader {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{fetcher: f, loc: loc, log: logger}
	l.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "history-fetch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// a caller going away says nothing about the store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("history: breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return l
}

// Load fetches up to limit readings (DefaultLimit when limit <= 0).
func (l *Loader) Load(ctx context.Context, principal string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	res, err := l.cb.Execute(func() (interface{}, error) {
		return l.fetcher.Fetch(ctx, principal, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("loading history: %w", ErrUnavailable)
		}
		return nil, fmt.Errorf("loading history: %w", err)
	}

	stored := res.([]reading.Stored)
	records := make([]Record, 0, len(stored))
	for _, s := range stored {
		records = append(records, FromStored(s, l.loc))
	}
	SortNewestFirst(records)

	l.log.Debug("history: loaded records", slog.Int("count", len(records)), slog.String("principal", principal))
	return records, nil
}
