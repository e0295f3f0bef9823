// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
	"github.com/relabs-tech/sensor_dashboard/internal/trend"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFormatConsoleLine(t *testing.T) {
	line := formatConsoleLine(map[reading.Channel]telemetry.Metric{
		reading.Temperature: {Value: 21.5, Trend: trend.Up},
		reading.Humidity:    {Value: 40, Trend: trend.Down},
	}, telemetry.Motion{})

	assert.Contains(t, line, "T= 21.5°C ↑")
	assert.Contains(t, line, "H= 40.0% ↓")
	assert.Contains(t, line, "GYRO= 0.00 =")
}

func TestRunConsolePrintsReadings(t *testing.T) {
	d := newTestDashboard(t)
	require.NoError(t, d.session.SignIn("uid-1"))

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- runConsole(ctx, d, out) }()

	require.Eventually(t, func() bool { return d.manager.Consumers() == 1 }, time.Second, 10*time.Millisecond)

	d.manager.UpdateFromSnapshot(reading.Snapshot{
		"a": {Timestamp: day.Format(time.RFC3339), Current: &reading.Current{Temperature: 23.0}},
	})
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("T= 23.0°C"))
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, d.manager.Consumers())
}
