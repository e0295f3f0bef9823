// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package series

import (
	"fmt"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// DefaultMeta is the chart styling of each channel.
var DefaultMeta = map[reading.Channel]Meta{
	reading.Temperature:  {Label: "Temperature (°C)", Unit: "°C", Color: "rgb(249, 115, 22)"},
	reading.Humidity:     {Label: "Humidity (%)", Unit: "%", Color: "rgb(59, 130, 246)"},
	reading.Altitude:     {Label: "Altitude (m)", Unit: "m", Color: "rgb(34, 197, 94)"},
	reading.Gyroscope:    {Label: "Gyroscope (rad/s)", Unit: "rad/s", Color: "rgb(147, 51, 234)"},
	reading.Acceleration: {Label: "Acceleration (m/s²)", Unit: "m/s²", Color: "rgb(236, 72, 153)"},
}

// Set holds one window per scalar channel.
type Set struct {
	windows   map[reading.Channel]*Window
	seedLimit int
}

// NewSet creates windows for every channel. livePoints is the window
// capacity, seedPoints caps how many history points a seed takes.
func NewSet(livePoints, seedPoints int) *Set {
	s := &Set{
		windows:   make(map[reading.Channel]*Window, len(reading.Channels)),
		seedLimit: seedPoints,
	}
	for _, c := range reading.Channels {
		s.windows[c] = NewWindow(DefaultMeta[c], livePoints)
	}
	return s
}

// Window returns the window of a channel, or nil for an unknown channel.
func (s *Set) Window(c reading.Channel) *Window {
	return s.windows[c]
}

// Push appends the same label to every channel window.
func (s *Set) Push(label string, values map[reading.Channel]float64) {
	for _, c := range reading.Channels {
		s.windows[c].Push(label, values[c])
	}
}

// Point is one seed sample: a label plus a value per channel.
type Point struct {
	Label  string
	Values map[reading.Channel]float64
}

// Seed replaces every window with up to seedPoints points given newest
// first.
func (s *Set) Seed(points []Point) error {
	if len(points) > s.seedLimit {
		points = points[:s.seedLimit]
	}
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	for _, c := range reading.Channels {
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Values[c]
		}
		if err := s.windows[c].Seed(labels, values); err != nil {
			return fmt.Errorf("seeding %s: %w", c, err)
		}
	}
	return nil
}

// Clear empties every window.
func (s *Set) Clear() {
	for _, w := range s.windows {
		w.Clear()
	}
}

// All returns copies of every window keyed by channel.
func (s *Set) All() map[reading.Channel]ChartSeries {
	out := make(map[reading.Channel]ChartSeries, len(s.windows))
	for c, w := range s.windows {
		out[c] = w.Series()
	}
	return out
}
