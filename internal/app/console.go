// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
	"github.com/relabs-tech/sensor_dashboard/internal/trend"
)

// RunConsole attaches one display surface for the configured principal
// and prints every committed reading until ctx is done.
func RunConsole(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()
	if cfg.Principal == "" {
		return fmt.Errorf("console: principal is required")
	}

	d, err := newDashboard(cfg, cfg.MQTT.ClientIDConsole, log)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.session.SignIn(cfg.Principal); err != nil {
		return err
	}
	return runConsole(ctx, d, os.Stdout)
}

func runConsole(ctx context.Context, d *dashboard, out io.Writer) error {
	updates, cancel := d.manager.Watch()
	defer cancel()

	lease, err := d.manager.Attach(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	d.seedCharts(ctx)

	var (
		lastID    string
		connected = true
	)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("console: shutting down")
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
		}

		st := d.manager.Status()
		if !st.Connected && connected {
			fmt.Fprintln(out, "[LINK] waiting for data")
		}
		connected = st.Connected
		if !st.Connected || st.LastReadingID == lastID {
			continue
		}
		lastID = st.LastReadingID

		motion, _ := d.manager.Motion()
		fmt.Fprintln(out, formatConsoleLine(d.manager.Metrics(), motion))
	}
}

func trendArrow(t trend.Trend) string {
	switch t {
	case trend.Up:
		return "↑"
	case trend.Down:
		return "↓"
	}
	return "="
}

func formatConsoleLine(m map[reading.Channel]telemetry.Metric, motion telemetry.Motion) string {
	return fmt.Sprintf(
		"[DATA] T=%5.1f°C %s  H=%5.1f%% %s  ALT=%7.1fm %s  GYRO=%5.2f %s  ACC=%5.2f %s  PITCH=%6.1f ROLL=%6.1f YAW=%6.1f",
		m[reading.Temperature].Value, trendArrow(m[reading.Temperature].Trend),
		m[reading.Humidity].Value, trendArrow(m[reading.Humidity].Trend),
		m[reading.Altitude].Value, trendArrow(m[reading.Altitude].Trend),
		m[reading.Gyroscope].Value, trendArrow(m[reading.Gyroscope].Trend),
		m[reading.Acceleration].Value, trendArrow(m[reading.Acceleration].Trend),
		motion.Orientation.Pitch, motion.Orientation.Roll, motion.Orientation.Yaw,
	)
}
