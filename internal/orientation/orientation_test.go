// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

func TestEstimateFlat(t *testing.T) {
	p := Estimate(reading.Vector{X: 0, Y: 0, Z: 1}, 0, 0)
	assert.Equal(t, Pose{Pitch: 0, Roll: 0, Yaw: 0}, p.Rounded())
}

func TestEstimateTilt(t *testing.T) {
	// nose up: gravity along +y
	p := Estimate(reading.Vector{X: 0, Y: 1, Z: 0}, 0, 0)
	assert.InDelta(t, 90, p.Pitch, 1e-9)
	assert.InDelta(t, 0, p.Roll, 1e-9)

	// rolled: gravity along -x
	p = Estimate(reading.Vector{X: -1, Y: 0, Z: 0}, 0, 0)
	assert.InDelta(t, 0, p.Pitch, 1e-9)
	assert.InDelta(t, 90, p.Roll, 1e-9)

	p = Estimate(reading.Vector{X: 0, Y: 1, Z: 1}, 0, 0)
	assert.InDelta(t, 45, p.Pitch, 1e-9)
}

func TestEstimateIntegratesYaw(t *testing.T) {
	yaw := 0.0
	for i := 0; i < 10; i++ {
		yaw = Estimate(reading.Vector{Z: 9.81}, 2.0, yaw).Yaw
	}
	assert.InDelta(t, 2.0, yaw, 1e-9)

	p := OpenLoop{DT: 0.5}.Estimate(reading.Vector{Z: 1}, 1, 10)
	assert.InDelta(t, 10.5, p.Yaw, 1e-9)
}

func TestEstimateDegenerateInput(t *testing.T) {
	p := Estimate(reading.Vector{X: math.NaN(), Y: 1, Z: 1}, math.NaN(), 0)
	assert.Equal(t, 0.0, p.Roll)
	assert.Equal(t, 0.0, p.Yaw)

	p = Estimate(reading.Vector{}, 0, 0)
	assert.Equal(t, Pose{}, p)
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, 5.0, Magnitude(reading.Vector{X: 3, Y: 4}))
	assert.Equal(t, 0.0, Magnitude(reading.Vector{X: math.Inf(1)}))
}
