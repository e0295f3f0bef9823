// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous *float64
		want     Trend
	}{
		{"no previous", 5.0, nil, Stable},
		{"no previous negative", -40, nil, Stable},
		{"rise above threshold", 5.0, ptr(4.8), Up},
		{"rise below threshold", 5.0, ptr(4.95), Stable},
		{"fall above threshold", 4.0, ptr(4.5), Down},
		{"equal", 3.3, ptr(3.3), Stable},
		{"previous zero is a value", 0.5, ptr(0), Up},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.current, tt.previous))
		})
	}
}
