// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"math"
	"sort"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// Stats contains statistical information about a data series. Min and Max
// are raw; everything else is rounded to two decimals.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   float64 `json:"mode"`
	StdDev float64 `json:"stdDev"`
	Count  int     `json:"count"`
}

// Compute returns the statistics of values, or false when values is empty.
//
// Mode ties go to the smallest value. StdDev is the population standard
// deviation.
func Compute(values []float64) (Stats, bool) {
	if len(values) == 0 {
		return Stats{}, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	// sorted input: runs of equal values are contiguous, scanning upwards
	// with a strict comparison keeps the smallest value on ties
	mode, best := sorted[0], 0
	for i := 0; i < n; {
		j := i
		for j < n && sorted[j] == sorted[i] {
			j++
		}
		if j-i > best {
			mode, best = sorted[i], j-i
		}
		i = j
	}

	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	return Stats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   reading.Round(mean, 2),
		Median: reading.Round(median, 2),
		Mode:   reading.Round(mode, 2),
		StdDev: reading.Round(math.Sqrt(variance), 2),
		Count:  n,
	}, true
}
