// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package trend classifies the short-term direction of a metric.
package trend

import "math"

// Trend is a coarse three-way direction.
type Trend string

const (
	Up     Trend = "up"
	Down   Trend = "down"
	Stable Trend = "stable"
)

// Threshold is the smallest absolute change reported as up or down.
const Threshold = 0.1

// Classify compares current against previous. A nil previous (no value seen
// yet) is always Stable.
func Classify(current float64, previous *float64) Trend {
	if previous == nil {
		return Stable
	}
	delta := current - *previous
	if math.Abs(delta) < Threshold {
		return Stable
	}
	if delta > 0 {
		return Up
	}
	return Down
}
