// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// FilterDateLayout is the layout of Filters.DateFrom and Filters.DateTo.
const FilterDateLayout = "2006-01-02"

// Filters narrows the record set. Empty fields do not filter.
type Filters struct {
	DateFrom string `json:"dateFrom"` // inclusive, from 00:00:00
	DateTo   string `json:"dateTo"`   // inclusive, up to 23:59:59
	Search   string `json:"search"`   // case-insensitive, formatted date or time
}

// Engine holds a newest-first record list and the active filters.
type Engine struct {
	loc *time.Location

	mu      sync.RWMutex
	records []Record
	filters Filters
	from    time.Time
	to      time.Time
}

// NewEngine creates an engine that interprets filter dates in loc.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

// Load replaces the record set, sorting it newest first.
func (e *Engine) Load(records []Record) {
	rs := append([]Record(nil), records...)
	SortNewestFirst(rs)

	e.mu.Lock()
	e.records = rs
	e.mu.Unlock()
}

// Records returns the full record set, newest first.
func (e *Engine) Records() []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Record(nil), e.records...)
}

// SetFilters validates and applies f. On error the previous filters stay.
func (e *Engine) SetFilters(f Filters) error {
	var from, to time.Time
	if f.DateFrom != "" {
		d, err := time.ParseInLocation(FilterDateLayout, f.DateFrom, e.loc)
		if err != nil {
			return fmt.Errorf("invalid dateFrom %q: %w", f.DateFrom, err)
		}
		from = d
	}
	if f.DateTo != "" {
		d, err := time.ParseInLocation(FilterDateLayout, f.DateTo, e.loc)
		if err != nil {
			return fmt.Errorf("invalid dateTo %q: %w", f.DateTo, err)
		}
		to = d.AddDate(0, 0, 1).Add(-time.Second)
	}

	e.mu.Lock()
	e.filters = f
	e.from = from
	e.to = to
	e.mu.Unlock()
	return nil
}

// Filters returns the active filters.
func (e *Engine) Filters() Filters {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filters
}

// Filtered returns the records matching the active filters, newest first.
func (e *Engine) Filtered() []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()

	search := strings.ToLower(e.filters.Search)
	out := make([]Record, 0, len(e.records))
	for _, r := range e.records {
		if !e.from.IsZero() && r.Timestamp.Before(e.from) {
			continue
		}
		if !e.to.IsZero() && r.Timestamp.After(e.to) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.FormattedDate), search) &&
			!strings.Contains(strings.ToLower(r.FormattedTime), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Stats computes statistics of a channel over the filtered records. The
// second result is false when no record holds a numeric value.
func (e *Engine) Stats(c reading.Channel) (Stats, bool) {
	records := e.Filtered()
	values := make([]float64, 0, len(records))
	for _, r := range records {
		v, err := reading.ParseChannel(r.Value(c))
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return Compute(values)
}
