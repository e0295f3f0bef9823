// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceStaysInRange(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := newMockSource(func() time.Time { return clock })

	for i := 0; i < 600; i++ {
		r, err := src.Next()
		require.NoError(t, err)

		assert.Equal(t, clock, r.Timestamp)
		assert.InDelta(t, 24, r.Temperature, 3.0001)
		assert.InDelta(t, 55, r.Humidity, 10.0001)
		assert.InDelta(t, 760, r.Altitude, 2.0001)
		assert.InDelta(t, r.Acceleration.Magnitude(), r.AccelerationTotal, 1e-9)
		assert.Greater(t, r.Acceleration.Z, 9.0)

		clock = clock.Add(time.Second)
	}
}
