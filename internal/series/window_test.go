// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package series

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

func TestWindowPushKeepsInvariants(t *testing.T) {
	w := NewWindow(Meta{Label: "T"}, LivePoints)

	for i := 0; i < 40; i++ {
		w.Push(fmt.Sprintf("t%02d", i), float64(i))

		s := w.Series()
		require.Equal(t, len(s.Labels), len(s.Values))
		require.LessOrEqual(t, len(s.Labels), LivePoints)
	}

	s := w.Series()
	assert.Equal(t, "t25", s.Labels[0])
	assert.Equal(t, 25.0, s.Values[0])
	assert.Equal(t, "t39", s.Labels[LivePoints-1])
	assert.Equal(t, 39.0, s.Values[LivePoints-1])
}

func TestWindowSeedReversesHistory(t *testing.T) {
	w := NewWindow(Meta{Label: "T"}, LivePoints)

	// ten records laid out newest first
	var labels []string
	var values []float64
	for i := 9; i >= 0; i-- {
		labels = append(labels, fmt.Sprintf("10:00:%02d", i))
		values = append(values, float64(i))
	}
	require.NoError(t, w.Seed(labels, values))

	s := w.Series()
	require.Len(t, s.Labels, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, labels[9-i], s.Labels[i])
		assert.Equal(t, values[9-i], s.Values[i])
	}

	// live points continue after the seeded ones
	w.Push("10:00:10", 10)
	assert.Equal(t, "10:00:10", w.Series().Labels[10])
}

func TestWindowSeedLongerThanCapacity(t *testing.T) {
	w := NewWindow(Meta{}, 3)
	require.NoError(t, w.Seed([]string{"e", "d", "c", "b", "a"}, []float64{5, 4, 3, 2, 1}))
	assert.Equal(t, []string{"c", "d", "e"}, w.Series().Labels)
	assert.Equal(t, []float64{3, 4, 5}, w.Series().Values)
}

func TestWindowSeedMismatch(t *testing.T) {
	w := NewWindow(Meta{Label: "T"}, 3)
	w.Push("a", 1)

	err := w.Seed([]string{"a", "b"}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.Equal(t, 1, w.Len())
}

func TestWindowClearKeepsMeta(t *testing.T) {
	meta := Meta{Label: "Humidity (%)", Unit: "%", Color: "blue"}
	w := NewWindow(meta, 5)
	w.Push("a", 1)
	w.Push("b", 2)

	w.Clear()
	assert.Equal(t, 0, w.Len())
	assert.Equal(t, meta, w.Meta())
	assert.Equal(t, meta, w.Series().Meta)
	assert.Equal(t, 5, w.Cap())
}

func TestWindowSeriesIsACopy(t *testing.T) {
	w := NewWindow(Meta{}, 2)
	w.Push("a", 1)
	s := w.Series()
	s.Values[0] = 99
	assert.Equal(t, 1.0, w.Series().Values[0])
}

func TestSetSeedAndPush(t *testing.T) {
	s := NewSet(LivePoints, SeedPoints)

	var points []Point
	for i := 11; i >= 0; i-- {
		points = append(points, Point{
			Label: fmt.Sprintf("p%02d", i),
			Values: map[reading.Channel]float64{
				reading.Temperature: float64(i),
				reading.Humidity:    float64(i * 2),
			},
		})
	}
	require.NoError(t, s.Seed(points))

	temp := s.Window(reading.Temperature).Series()
	require.Len(t, temp.Labels, SeedPoints)
	assert.Equal(t, "p02", temp.Labels[0])
	assert.Equal(t, "p11", temp.Labels[SeedPoints-1])
	assert.Equal(t, 11.0, temp.Values[SeedPoints-1])
	assert.Equal(t, 22.0, s.Window(reading.Humidity).Series().Values[SeedPoints-1])
	assert.Equal(t, 0.0, s.Window(reading.Altitude).Series().Values[0])

	s.Push("p12", map[reading.Channel]float64{reading.Temperature: 12})
	all := s.All()
	require.Len(t, all, len(reading.Channels))
	for _, c := range reading.Channels {
		assert.Len(t, all[c].Labels, SeedPoints+1)
		assert.Equal(t, DefaultMeta[c], all[c].Meta)
	}

	s.Clear()
	assert.Equal(t, 0, s.Window(reading.Gyroscope).Len())
	assert.Nil(t, s.Window(reading.Channel("pressure")))
}
