// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package device provides reading sources that stand in for the sensor
// board.
package device

import (
	"math"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// Source is anything that can provide readings over time.
type Source interface {
	Next() (reading.Reading, error)
}

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock source that generates smooth changing
// values around typical indoor conditions.
func NewMockSource() Source {
	return newMockSource(time.Now)
}

func newMockSource(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (reading.Reading, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()

	gyro := reading.Vector{
		X: 0.3 * math.Sin(elapsed*0.9),
		Y: 0.2 * math.Cos(elapsed*1.3),
		Z: 0.5 * math.Sin(elapsed*0.4),
	}
	// gravity slowly wobbling around +z
	accel := reading.Vector{
		X: 1.5 * math.Sin(elapsed*0.5),
		Y: 1.2 * math.Cos(elapsed*0.7),
		Z: 9.6 + 0.1*math.Sin(elapsed),
	}

	return reading.Reading{
		Timestamp:         t,
		Temperature:       24 + 3*math.Sin(elapsed/60),
		Humidity:          55 + 10*math.Cos(elapsed/90),
		Altitude:          760 + 2*math.Sin(elapsed/30),
		Gyroscope:         gyro,
		Acceleration:      accel,
		GyroscopeTotal:    gyro.Magnitude(),
		AccelerationTotal: accel.Magnitude(),
	}, nil
}
