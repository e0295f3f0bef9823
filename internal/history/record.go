// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history filters fetched readings and computes aggregate
// statistics over them for the historical table.
package history

import (
	"sort"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04:05"
)

// Record is one row of the historical table. Channel values are kept as
// decimal-formatted strings, the way the table renders them.
type Record struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	FormattedDate string    `json:"date"`
	FormattedTime string    `json:"time"`

	Temperature  string `json:"temperature"`
	Humidity     string `json:"humidity"`
	Altitude     string `json:"altitude"`
	Gyroscope    string `json:"gyroscope"`
	Acceleration string `json:"acceleration"`
}

// Value returns the formatted value of a channel, or "" for an unknown one.
func (r Record) Value(c reading.Channel) string {
	switch c {
	case reading.Temperature:
		return r.Temperature
	case reading.Humidity:
		return r.Humidity
	case reading.Altitude:
		return r.Altitude
	case reading.Gyroscope:
		return r.Gyroscope
	case reading.Acceleration:
		return r.Acceleration
	}
	return ""
}

// FromStored formats a stored reading in loc.
func FromStored(s reading.Stored, loc *time.Location) Record {
	if loc == nil {
		loc = time.Local
	}
	ts := s.Timestamp.In(loc)
	return Record{
		ID:            s.ID,
		Timestamp:     ts,
		FormattedDate: ts.Format(DateLayout),
		FormattedTime: ts.Format(TimeLayout),
		Temperature:   reading.Format(s.Temperature, reading.Temperature.Precision()),
		Humidity:      reading.Format(s.Humidity, reading.Humidity.Precision()),
		Altitude:      reading.Format(s.Altitude, reading.Altitude.Precision()),
		Gyroscope:     reading.Format(s.GyroscopeTotal, reading.Gyroscope.Precision()),
		Acceleration:  reading.Format(s.AccelerationTotal, reading.Acceleration.Precision()),
	}
}

// SortNewestFirst orders records by descending timestamp in place.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
}
