// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"log/slog"
	"time"

	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/orientation"
	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/series"
	"github.com/relabs-tech/sensor_dashboard/internal/trend"
)

// LabelLayout formats live chart labels.
const LabelLayout = "15:04:05"

// vectorPrecision is the display rounding of motion vectors.
const vectorPrecision = 3

// Metric is the current value of one scalar channel.
type Metric struct {
	Value float64     `json:"value"`
	Unit  string      `json:"unit"`
	Trend trend.Trend `json:"trend"`
}

// VectorView is a three-axis value with its magnitude, rounded for display.
type VectorView struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Magnitude float64 `json:"magnitude"`
}

func newVectorView(v reading.Vector) VectorView {
	return VectorView{
		X:         reading.Round(v.X, vectorPrecision),
		Y:         reading.Round(v.Y, vectorPrecision),
		Z:         reading.Round(v.Z, vectorPrecision),
		Magnitude: reading.Round(orientation.Magnitude(v), vectorPrecision),
	}
}

// Motion is what the 3D widget shows.
type Motion struct {
	Gyroscope    VectorView       `json:"gyroscope"`
	Acceleration VectorView       `json:"acceleration"`
	Orientation  orientation.Pose `json:"orientation"`
	Timestamp    time.Time        `json:"timestamp"`
}

// state is the committed store. Guarded by Manager.mu.
type state struct {
	metrics  map[reading.Channel]Metric
	previous map[reading.Channel]float64
	pose     orientation.Pose // unrounded, yaw integrates from it
	motion   Motion
	moving   bool // motion holds a reading

	series            *series.Set
	chartsInitialised bool

	connected   bool
	lastID      string
	lastUpdate  time.Time
	currentTime time.Time
}

func newState(set *series.Set) state {
	st := state{series: set}
	st.clear()
	return st
}

// clear resets metrics, orientation and chart contents. The series set
// keeps its identity.
func (st *state) clear() {
	st.metrics = make(map[reading.Channel]Metric, len(reading.Channels))
	for _, c := range reading.Channels {
		st.metrics[c] = Metric{Unit: c.Unit(), Trend: trend.Stable}
	}
	st.previous = make(map[reading.Channel]float64, len(reading.Channels))
	st.pose = orientation.Pose{}
	st.motion = Motion{}
	st.moving = false
	st.series.Clear()
}

// UpdateFromSnapshot applies a snapshot as if the live listener had
// delivered it.
func (m *Manager) UpdateFromSnapshot(snap reading.Snapshot) {
	m.apply(0, snap)
}

// apply commits snap. gen 0 bypasses the stale-listener check.
func (m *Manager) apply(gen uint64, snap reading.Snapshot) {
	m.mu.Lock()
	if gen != 0 && gen != m.gen {
		m.mu.Unlock()
		m.metrics.Snapshots.WithLabelValues(resultStale).Inc()
		return
	}
	result, bad := m.commit(snap)
	connected := m.st.connected
	m.mu.Unlock()

	if len(bad) > 0 {
		m.log.Warn("telemetry: invalid channel values replaced with 0", slog.Any("fields", bad))
	}
	m.metrics.Snapshots.WithLabelValues(result).Inc()
	m.metrics.Connected.Set(boolGauge(connected))
	m.notify()
}

// commit must be called with mu held.
func (m *Manager) commit(snap reading.Snapshot) (string, []string) {
	st := &m.st

	id, entry, ok := snap.Latest()
	if !ok {
		st.connected = false
		return resultEmpty, nil
	}
	if entry.Current == nil {
		st.connected = false
		return resultNoCurrent, nil
	}

	now := m.now()
	ts, ok := entry.Time()
	if !ok {
		ts = now
	}
	r := entry.Current.Reading(ts, 0)

	values := make(map[reading.Channel]float64, len(reading.Channels))
	for _, c := range reading.Channels {
		v := reading.Round(r.Value(c), c.Precision())
		var prev *float64
		if p, seen := st.previous[c]; seen {
			prev = &p
		}
		st.metrics[c] = Metric{Value: v, Unit: c.Unit(), Trend: trend.Classify(v, prev)}
		st.previous[c] = v
		values[c] = v
	}

	st.pose = m.est.Estimate(r.Acceleration, r.Gyroscope.Z, st.pose.Yaw)
	st.motion = Motion{
		Gyroscope:    newVectorView(r.Gyroscope),
		Acceleration: newVectorView(r.Acceleration),
		Orientation:  st.pose.Rounded(),
		Timestamp:    ts,
	}
	st.moving = true
	st.connected = true
	st.lastID = id
	st.lastUpdate = now

	st.series.Push(ts.In(m.loc).Format(LabelLayout), values)
	return resultApplied, invalidFields(entry.Current)
}

// invalidFields names the present but unparsable channel values of c.
func invalidFields(c *reading.Current) []string {
	fields := []struct {
		name string
		raw  any
	}{
		{"temperature", c.Temperature},
		{"humidity", c.Humidity},
		{"altitude", c.Altitude},
		{"gyroscope_x", c.GyroscopeX},
		{"gyroscope_y", c.GyroscopeY},
		{"gyroscope_z", c.GyroscopeZ},
		{"acceleration_x", c.AccelerationX},
		{"acceleration_y", c.AccelerationY},
		{"acceleration_z", c.AccelerationZ},
	}
	var bad []string
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		if _, err := reading.ParseChannel(f.raw); err != nil {
			bad = append(bad, f.name)
		}
	}
	return bad
}

// LoadInitial seeds the chart windows from history records given newest
// first. Only the newest seed-size records are used. An empty history
// leaves the charts unseeded.
func (m *Manager) LoadInitial(records []history.Record) error {
	return m.loadInitial("", records)
}

// LoadInitialFor is LoadInitial for records fetched on behalf of principal.
// It fails with ErrPrincipalChanged when principal is no longer signed in.
func (m *Manager) LoadInitialFor(principal string, records []history.Record) error {
	if principal == "" {
		return ErrNotAuthenticated
	}
	return m.loadInitial(principal, records)
}

func (m *Manager) loadInitial(principal string, records []history.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]series.Point, 0, len(records))
	for _, rec := range records {
		values := make(map[reading.Channel]float64, len(reading.Channels))
		for _, c := range reading.Channels {
			values[c] = reading.ValueOr(rec.Value(c), 0)
		}
		points = append(points, series.Point{Label: rec.FormattedTime, Values: values})
	}

	m.mu.Lock()
	if principal != "" {
		// sign-out clears the store under mu after the session dropped the
		// principal, so this check and the seed cannot straddle it
		if current, _ := m.session.Principal(); current != principal {
			m.mu.Unlock()
			return ErrPrincipalChanged
		}
	}
	err := m.st.series.Seed(points)
	if err == nil {
		m.st.chartsInitialised = true
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.notify()
	return nil
}

// Reset clears metric values, orientation and chart contents. The charts
// are seeded from history again on the next load.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.st.clear()
	m.st.chartsInitialised = false
	m.mu.Unlock()
	m.notify()
}

// Metrics returns a copy of the current metric set.
func (m *Manager) Metrics() map[reading.Channel]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[reading.Channel]Metric, len(m.st.metrics))
	for c, v := range m.st.metrics {
		out[c] = v
	}
	return out
}

// Motion returns the motion vectors and pose of the last reading. ok is
// false until a reading has been applied.
func (m *Manager) Motion() (Motion, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.motion, m.st.moving
}

// Series returns a copy of one chart window.
func (m *Manager) Series(c reading.Channel) (series.ChartSeries, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w := m.st.series.Window(c)
	if w == nil {
		return series.ChartSeries{}, false
	}
	return w.Series(), true
}

// AllSeries returns copies of every chart window.
func (m *Manager) AllSeries() map[reading.Channel]series.ChartSeries {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.series.All()
}

// IsConnected reports whether the last delivery carried a usable reading.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.connected
}

// ChartsInitialised reports whether the charts were seeded from history.
func (m *Manager) ChartsInitialised() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.chartsInitialised
}
