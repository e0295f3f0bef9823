// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sensor_dashboard/internal/auth"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/source"
	"github.com/relabs-tech/sensor_dashboard/internal/storage"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

type stubSubscription struct{}

func (stubSubscription) Close() error { return nil }

type stubSource struct {
	mu       sync.Mutex
	handlers []source.Handler
}

func (s *stubSource) Subscribe(_ string, h source.Handler) (source.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
	return stubSubscription{}, nil
}

var day = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

func newTestDashboard(t *testing.T) *dashboard {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.New(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)

	// two days of readings, three per day
	for i, ts := range []time.Time{
		day.Add(8 * time.Hour), day.Add(12 * time.Hour), day.Add(18 * time.Hour),
		day.Add(32 * time.Hour), day.Add(36 * time.Hour), day.Add(42 * time.Hour),
	} {
		r := reading.Reading{Timestamp: ts, Temperature: float64(10 * (i + 1)), Humidity: 50}
		require.NoError(t, store.InsertReading(context.Background(), "uid-1", fmt.Sprintf("r%d", i), r))
	}

	registry := prometheus.NewRegistry()
	session := auth.NewSession()
	manager := telemetry.New(&stubSource{}, session,
		telemetry.WithLogger(log),
		telemetry.WithRegisterer(registry),
		telemetry.WithLocation(time.UTC),
		telemetry.WithTickInterval(time.Hour),
	)

	d := &dashboard{
		session:  session,
		manager:  manager,
		store:    store,
		loader:   history.NewLoader(store, time.UTC, log),
		loc:      time.UTC,
		limit:    history.DefaultLimit,
		registry: registry,
		log:      log,
	}
	d.logSession()
	t.Cleanup(d.Close)
	return d
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestWebLiveViews(t *testing.T) {
	d := newTestDashboard(t)
	router := newWebRouter(d, "")

	rec := do(t, router, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]telemetry.Metric](t, rec), len(reading.Channels))

	rec = do(t, router, http.MethodGet, "/api/orientation", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	d.manager.UpdateFromSnapshot(reading.Snapshot{
		"a": {Timestamp: day.Format(time.RFC3339), Current: &reading.Current{Temperature: 21.0, AccelerationZ: 9.81}},
	})

	rec = do(t, router, http.MethodGet, "/api/orientation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	motion := decode[telemetry.Motion](t, rec)
	assert.Equal(t, 9.81, motion.Acceleration.Magnitude)

	rec = do(t, router, http.MethodGet, "/api/series/temperature", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"values":[21]`)

	rec = do(t, router, http.MethodGet, "/api/series/pressure", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/series", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[telemetry.Status](t, rec).Connected)

	rec = do(t, router, http.MethodPost, "/api/charts/reset", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	s, _ := d.manager.Series(reading.Temperature)
	assert.Empty(t, s.Values)

	rec = do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_snapshots_total")
}

func TestWebSession(t *testing.T) {
	d := newTestDashboard(t)
	router := newWebRouter(d, "")

	rec := do(t, router, http.MethodPost, "/api/session", signInRequest{Principal: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/session", signInRequest{Principal: "uid-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	p, ok := d.session.Principal()
	require.True(t, ok)
	assert.Equal(t, "uid-1", p)

	rec = do(t, router, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = d.session.Principal()
	assert.False(t, ok)
}

func TestWebHistory(t *testing.T) {
	d := newTestDashboard(t)
	router := newWebRouter(d, "")

	rec := do(t, router, http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, d.session.SignIn("uid-1"))

	rec = do(t, router, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[historyResponse](t, rec)
	require.Equal(t, 6, all.Count)
	assert.Equal(t, "r5", all.Records[0].ID, "newest first")

	rec = do(t, router, http.MethodGet, "/api/history?from=2026-02-11&to=2026-02-11", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[historyResponse](t, rec).Count)

	rec = do(t, router, http.MethodGet, "/api/history?search=12:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[historyResponse](t, rec).Count)

	rec = do(t, router, http.MethodGet, "/api/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[historyResponse](t, rec).Count)

	rec = do(t, router, http.MethodGet, "/api/history?from=11/02/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/history?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebStats(t *testing.T) {
	d := newTestDashboard(t)
	router := newWebRouter(d, "")
	require.NoError(t, d.session.SignIn("uid-1"))

	rec := do(t, router, http.MethodGet, "/api/stats/temperature?to=2026-02-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[history.Stats](t, rec)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 20.0, stats.Mean)
	assert.Equal(t, 8.16, stats.StdDev)

	rec = do(t, router, http.MethodGet, "/api/stats/temperature?search=nothing", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/stats/pressure", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebStream(t *testing.T) {
	d := newTestDashboard(t)
	srv := httptest.NewServer(newWebRouter(d, ""))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, d.session.SignIn("uid-1"))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var first streamFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 1, first.Status.Consumers)
	assert.True(t, first.Status.ChartsInitialised)
	assert.Len(t, first.Series[reading.Temperature].Values, 6, "charts seeded from history")
	assert.Nil(t, first.Motion)

	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return d.manager.Consumers() == 2 }, time.Second, 10*time.Millisecond)
	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return d.manager.Consumers() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, d.manager.Listening())

	d.manager.UpdateFromSnapshot(reading.Snapshot{
		"b": {Timestamp: day.Format(time.RFC3339), Current: &reading.Current{Temperature: 30.0}},
	})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.Eventually(t, func() bool {
		var f streamFrame
		if err := conn.ReadJSON(&f); err != nil {
			return false
		}
		return f.Motion != nil && f.Metrics[reading.Temperature].Value == 30
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return d.manager.Consumers() == 0 }, time.Second, 10*time.Millisecond)
	assert.False(t, d.manager.Listening())

	// cleared charts are seeded again by the next page
	resp, err = http.Post(srv.URL+"/api/charts/reset", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.False(t, d.manager.ChartsInitialised())

	again, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer again.Close()
	var reseeded streamFrame
	require.NoError(t, again.ReadJSON(&reseeded))
	assert.True(t, reseeded.Status.ChartsInitialised)
	assert.Len(t, reseeded.Series[reading.Temperature].Values, 6)
}
