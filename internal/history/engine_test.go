// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

func storedAt(id string, ts time.Time, temp float64) reading.Stored {
	return reading.Stored{
		ID: id,
		Reading: reading.Reading{
			Timestamp:         ts,
			Temperature:       temp,
			Humidity:          50,
			Altitude:          700,
			GyroscopeTotal:    0.123,
			AccelerationTotal: 9.806,
		},
	}
}

func testRecords(loc *time.Location) []Record {
	base := time.Date(2026, 5, 10, 9, 30, 0, 0, loc)
	return []Record{
		FromStored(storedAt("a", base.AddDate(0, 0, -2), 10), loc),
		FromStored(storedAt("b", base.AddDate(0, 0, -1), 20), loc),
		FromStored(storedAt("c", base, 30), loc),
		FromStored(storedAt("d", base.Add(14*time.Hour+29*time.Minute+59*time.Second), 40), loc), // 23:59:59
	}
}

func TestFromStoredFormatting(t *testing.T) {
	loc := time.UTC
	r := FromStored(storedAt("x", time.Date(2026, 5, 10, 7, 5, 3, 0, loc), 21.55), loc)

	assert.Equal(t, "10/05/2026", r.FormattedDate)
	assert.Equal(t, "07:05:03", r.FormattedTime)
	assert.Equal(t, "21.6", r.Temperature)
	assert.Equal(t, "50.0", r.Humidity)
	assert.Equal(t, "700.0", r.Altitude)
	assert.Equal(t, "0.12", r.Gyroscope)
	assert.Equal(t, "9.81", r.Acceleration)
	assert.Equal(t, "", r.Value(reading.Channel("pressure")))
}

func TestEngineSortsNewestFirst(t *testing.T) {
	e := NewEngine(time.UTC)
	e.Load(testRecords(time.UTC))

	rs := e.Records()
	require.Len(t, rs, 4)
	assert.Equal(t, []string{"d", "c", "b", "a"}, []string{rs[0].ID, rs[1].ID, rs[2].ID, rs[3].ID})
}

func TestEngineDateFilters(t *testing.T) {
	e := NewEngine(time.UTC)
	e.Load(testRecords(time.UTC))

	require.NoError(t, e.SetFilters(Filters{DateFrom: "2026-05-09", DateTo: "2026-05-10"}))
	ids := func() (out []string) {
		for _, r := range e.Filtered() {
			out = append(out, r.ID)
		}
		return
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids())

	require.NoError(t, e.SetFilters(Filters{DateTo: "2026-05-09"}))
	assert.Equal(t, []string{"b", "a"}, ids())

	err := e.SetFilters(Filters{DateFrom: "10/05/2026"})
	require.Error(t, err)
	assert.Equal(t, Filters{DateTo: "2026-05-09"}, e.Filters())
}

func TestEngineDateToOnShortDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("no tz database: %v", err)
	}

	// clocks go forward on 2026-03-29, the day has 23 hours
	e := NewEngine(loc)
	e.Load([]Record{
		FromStored(storedAt("late", time.Date(2026, 3, 29, 23, 30, 0, 0, loc), 1), loc),
		FromStored(storedAt("next", time.Date(2026, 3, 30, 0, 10, 0, 0, loc), 2), loc),
	})

	require.NoError(t, e.SetFilters(Filters{DateTo: "2026-03-29"}))
	rs := e.Filtered()
	require.Len(t, rs, 1)
	assert.Equal(t, "late", rs[0].ID)
}

func TestEngineSearch(t *testing.T) {
	e := NewEngine(time.UTC)
	e.Load(testRecords(time.UTC))

	require.NoError(t, e.SetFilters(Filters{Search: "09/05"}))
	rs := e.Filtered()
	require.Len(t, rs, 1)
	assert.Equal(t, "b", rs[0].ID)

	require.NoError(t, e.SetFilters(Filters{Search: "23:59"}))
	rs = e.Filtered()
	require.Len(t, rs, 1)
	assert.Equal(t, "d", rs[0].ID)
}

func TestEngineStats(t *testing.T) {
	e := NewEngine(time.UTC)
	e.Load(testRecords(time.UTC)[:3])

	s, ok := e.Stats(reading.Temperature)
	require.True(t, ok)
	assert.Equal(t, Stats{Min: 10, Max: 30, Mean: 20, Median: 20, Mode: 10, StdDev: 8.16, Count: 3}, s)

	require.NoError(t, e.SetFilters(Filters{DateFrom: "2030-01-01"}))
	_, ok = e.Stats(reading.Temperature)
	assert.False(t, ok)
}

func TestEngineStatsSkipsNonNumeric(t *testing.T) {
	e := NewEngine(time.UTC)
	e.Load([]Record{
		{ID: "1", Temperature: "12.0"},
		{ID: "2", Temperature: "NaN"},
		{ID: "3", Temperature: ""},
		{ID: "4", Temperature: "14.0"},
	})

	s, ok := e.Stats(reading.Temperature)
	require.True(t, ok)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 13.0, s.Mean)

	_, ok = e.Stats(reading.Channel("pressure"))
	assert.False(t, ok)
}
