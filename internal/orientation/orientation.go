// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// NominalDT is the integration step (seconds) assumed between readings.
const NominalDT = 0.1

// Pose is the canonical representation of orientation for the dashboard,
// in degrees.
type Pose struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// Rounded returns the pose rounded to one decimal for display.
func (p Pose) Rounded() Pose {
	return Pose{
		Pitch: reading.Round(p.Pitch, 1),
		Roll:  reading.Round(p.Roll, 1),
		Yaw:   reading.Round(p.Yaw, 1),
	}
}

// Estimator turns an accelerometer triple and the z gyro rate into a pose.
// previousYaw is the yaw of the last estimate; implementations that
// integrate rates build on it.
type Estimator interface {
	Estimate(accel reading.Vector, gyroZ, previousYaw float64) Pose
}

// OpenLoop estimates pitch/roll from gravity and integrates yaw from the z
// gyro rate with a fixed step. Yaw drifts without bound.
type OpenLoop struct {
	DT float64
}

// Estimate implements Estimator.
func (o OpenLoop) Estimate(accel reading.Vector, gyroZ, previousYaw float64) Pose {
	dt := o.DT
	if dt == 0 {
		dt = NominalDT
	}
	pitch, roll := Tilt(accel.X, accel.Y, accel.Z)
	return Pose{
		Pitch: pitch,
		Roll:  roll,
		Yaw:   finite(previousYaw + gyroZ*dt),
	}
}

// Estimate runs the default open-loop estimator.
func Estimate(accel reading.Vector, gyroZ, previousYaw float64) Pose {
	return OpenLoop{DT: NominalDT}.Estimate(accel, gyroZ, previousYaw)
}

// Tilt computes pitch and roll (degrees) from accelerometer data only:
//
//	pitch = atan2(ay, sqrt(ax² + az²))
//	roll  = atan2(-ax, sqrt(ay² + az²))
func Tilt(ax, ay, az float64) (pitch, roll float64) {
	pitchRad := math.Atan2(ay, math.Sqrt(ax*ax+az*az))
	rollRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return finite(pitchRad * 180.0 / math.Pi), finite(rollRad * 180.0 / math.Pi)
}

// Magnitude returns the length of a 3-vector.
func Magnitude(v reading.Vector) float64 {
	return finite(v.Magnitude())
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
