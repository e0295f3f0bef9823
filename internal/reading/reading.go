// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package reading holds the telemetry data model shared by the source,
// the bridge, the store and the dashboard core.
package reading

import (
	"math"
	"sort"
	"time"
)

// Channel names one scalar telemetry channel.
type Channel string

const (
	Temperature  Channel = "temperature"
	Humidity     Channel = "humidity"
	Altitude     Channel = "altitude"
	Gyroscope    Channel = "gyroscope"
	Acceleration Channel = "acceleration"
)

// Channels lists the scalar channels in display order.
var Channels = []Channel{Temperature, Humidity, Altitude, Gyroscope, Acceleration}

// Valid reports whether c is one of the known scalar channels.
func (c Channel) Valid() bool {
	switch c {
	case Temperature, Humidity, Altitude, Gyroscope, Acceleration:
		return true
	}
	return false
}

// Unit returns the display unit of the channel.
func (c Channel) Unit() string {
	switch c {
	case Temperature:
		return "°C"
	case Humidity:
		return "%"
	case Altitude:
		return "m"
	case Gyroscope:
		return "rad/s"
	case Acceleration:
		return "m/s²"
	}
	return ""
}

// Precision is the number of decimals a channel value is rounded to.
func (c Channel) Precision() int {
	switch c {
	case Gyroscope, Acceleration:
		return 2
	}
	return 1
}

// Vector is a three-axis sample (gyroscope in rad/s, acceleration in m/s²).
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Magnitude returns sqrt(x² + y² + z²).
func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Reading is a single timestamped multi-channel measurement.
//
// GyroscopeTotal and AccelerationTotal carry the scalar channel values. The
// device publishes them on its own; when it does not, they are the
// magnitude of the matching vector.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`

	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // %
	Altitude    float64 `json:"altitude"`    // m

	Gyroscope    Vector `json:"gyroscope"`
	Acceleration Vector `json:"acceleration"`

	GyroscopeTotal    float64 `json:"gyroscope_total"`
	AccelerationTotal float64 `json:"acceleration_total"`
}

// Value returns the scalar value of a channel.
func (r Reading) Value(c Channel) float64 {
	switch c {
	case Temperature:
		return r.Temperature
	case Humidity:
		return r.Humidity
	case Altitude:
		return r.Altitude
	case Gyroscope:
		return r.GyroscopeTotal
	case Acceleration:
		return r.AccelerationTotal
	}
	return 0
}

// Stored is a reading together with the id it was stored under.
type Stored struct {
	ID string
	Reading
}

// Current is the raw "current" block of a snapshot entry. Values are kept
// as decoded from JSON (float64, string, nil, ...) so parsing stays explicit.
type Current struct {
	Temperature  any `json:"temperature"`
	Humidity     any `json:"humidity"`
	Altitude     any `json:"altitude"`
	Gyroscope    any `json:"gyroscope,omitempty"`
	Acceleration any `json:"acceleration,omitempty"`

	GyroscopeX any `json:"gyroscope_x"`
	GyroscopeY any `json:"gyroscope_y"`
	GyroscopeZ any `json:"gyroscope_z"`

	AccelerationX any `json:"acceleration_x"`
	AccelerationY any `json:"acceleration_y"`
	AccelerationZ any `json:"acceleration_z"`
}

// Reading converts the raw block, replacing every value that does not parse
// with fallback.
func (c *Current) Reading(ts time.Time, fallback float64) Reading {
	r := Reading{
		Timestamp:   ts,
		Temperature: ValueOr(c.Temperature, fallback),
		Humidity:    ValueOr(c.Humidity, fallback),
		Altitude:    ValueOr(c.Altitude, fallback),
		Gyroscope: Vector{
			X: ValueOr(c.GyroscopeX, fallback),
			Y: ValueOr(c.GyroscopeY, fallback),
			Z: ValueOr(c.GyroscopeZ, fallback),
		},
		Acceleration: Vector{
			X: ValueOr(c.AccelerationX, fallback),
			Y: ValueOr(c.AccelerationY, fallback),
			Z: ValueOr(c.AccelerationZ, fallback),
		},
	}

	if v, err := ParseChannel(c.Gyroscope); err == nil {
		r.GyroscopeTotal = v
	} else {
		r.GyroscopeTotal = r.Gyroscope.Magnitude()
	}
	if v, err := ParseChannel(c.Acceleration); err == nil {
		r.AccelerationTotal = v
	} else {
		r.AccelerationTotal = r.Acceleration.Magnitude()
	}
	return r
}

// CurrentFrom builds the raw block for a reading; used by producers of
// snapshots.
func CurrentFrom(r Reading) *Current {
	return &Current{
		Temperature:   r.Temperature,
		Humidity:      r.Humidity,
		Altitude:      r.Altitude,
		Gyroscope:     r.GyroscopeTotal,
		Acceleration:  r.AccelerationTotal,
		GyroscopeX:    r.Gyroscope.X,
		GyroscopeY:    r.Gyroscope.Y,
		GyroscopeZ:    r.Gyroscope.Z,
		AccelerationX: r.Acceleration.X,
		AccelerationY: r.Acceleration.Y,
		AccelerationZ: r.Acceleration.Z,
	}
}

// Entry is one keyed reading inside a snapshot.
type Entry struct {
	Timestamp string   `json:"timestamp,omitempty"` // RFC 3339
	UserID    string   `json:"userId,omitempty"`
	Current   *Current `json:"current,omitempty"`
}

// Time parses the entry timestamp.
func (e Entry) Time() (time.Time, bool) {
	if e.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Snapshot is one push delivery: reading id -> entry.
type Snapshot map[string]Entry

// Latest returns the entry with the lexicographically greatest id.
func (s Snapshot) Latest() (string, Entry, bool) {
	if len(s) == 0 {
		return "", Entry{}, false
	}
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	id := ids[len(ids)-1]
	return id, s[id], true
}
