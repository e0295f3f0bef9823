// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/series"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// streamFrame is one push to a dashboard page: everything it renders.
type streamFrame struct {
	Metrics map[reading.Channel]telemetry.Metric   `json:"metrics"`
	Motion  *telemetry.Motion                      `json:"motion,omitempty"`
	Series  map[reading.Channel]series.ChartSeries `json:"series"`
	Status  telemetry.Status                       `json:"status"`
}

func (h *webHandlers) frame() streamFrame {
	f := streamFrame{
		Metrics: h.d.manager.Metrics(),
		Series:  h.d.manager.AllSeries(),
		Status:  h.d.manager.Status(),
	}
	if motion, ok := h.d.manager.Motion(); ok {
		f.Motion = &motion
	}
	return f
}

// stream holds one lease for the lifetime of the WebSocket connection and
// pushes a frame after every committed change.
func (h *webHandlers) stream(w http.ResponseWriter, r *http.Request) {
	h.d.seedCharts(r.Context())

	lease, err := h.d.manager.Attach(r.Context())
	if err != nil {
		h.writeError(w, attachError(err), err.Error())
		return
	}
	defer lease.Release()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("web: websocket upgrade error", slog.Any("err", err))
		return
	}
	defer conn.Close()
	h.log.Info("web: stream opened", slog.String("lease", lease.ID()), slog.String("remote", r.RemoteAddr))

	updates, cancel := h.d.manager.Watch()
	defer cancel()

	// Reads only detect the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn("web: websocket error", slog.Any("err", err))
				}
				return
			}
		}
	}()

	send := func() error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(h.frame())
	}

	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			h.log.Info("web: stream closed", slog.String("lease", lease.ID()))
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			if err := send(); err != nil {
				h.log.Debug("web: stream write failed", slog.Any("err", err))
				return
			}
		}
	}
}
