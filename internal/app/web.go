// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/sensor_dashboard/internal/auth"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

// RunWeb serves the dashboard API, the WebSocket stream and the static
// frontend until ctx is done.
func RunWeb(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()

	d, err := newDashboard(cfg, cfg.MQTT.ClientIDWeb, log)
	if err != nil {
		return err
	}
	defer d.Close()

	if cfg.Principal != "" {
		if err := d.session.SignIn(cfg.Principal); err != nil {
			return err
		}
		log.Info("web: signed in from config", slog.String("principal", cfg.Principal))
	}

	srv := &http.Server{
		Addr:              cfg.Web.Address,
		Handler:           newWebRouter(d, cfg.Web.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("web: server listening", slog.String("addr", cfg.Web.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("web: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

type webHandlers struct {
	d   *dashboard
	log *slog.Logger
}

func newWebRouter(d *dashboard, staticDir string) *mux.Router {
	h := &webHandlers{d: d, log: d.log.With(slog.String("component", "web"))}

	r := mux.NewRouter()
	r.Use(h.requestLogging)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)
	api.HandleFunc("/orientation", h.orientation).Methods(http.MethodGet)
	api.HandleFunc("/series", h.allSeries).Methods(http.MethodGet)
	api.HandleFunc("/series/{metric}", h.series).Methods(http.MethodGet)
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)
	api.HandleFunc("/history", h.history).Methods(http.MethodGet)
	api.HandleFunc("/stats/{metric}", h.stats).Methods(http.MethodGet)
	api.HandleFunc("/session", h.signIn).Methods(http.MethodPost)
	api.HandleFunc("/session", h.signOut).Methods(http.MethodDelete)
	api.HandleFunc("/charts/reset", h.resetCharts).Methods(http.MethodPost)

	r.HandleFunc("/ws", h.stream).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogging tags each request with an id and logs it when done.
// WebSocket upgrades bypass the recorder so the hijacker stays reachable.
func (h *webHandlers) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", requestID)

		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("web: request",
			slog.String("id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}

func (h *webHandlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("web: json encode error", slog.Any("err", err))
	}
}

func (h *webHandlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func channelVar(r *http.Request) (reading.Channel, bool) {
	c := reading.Channel(mux.Vars(r)["metric"])
	return c, c.Valid()
}

func (h *webHandlers) metrics(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.d.manager.Metrics())
}

func (h *webHandlers) orientation(w http.ResponseWriter, _ *http.Request) {
	motion, ok := h.d.manager.Motion()
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	h.writeJSON(w, http.StatusOK, motion)
}

func (h *webHandlers) allSeries(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.d.manager.AllSeries())
}

func (h *webHandlers) series(w http.ResponseWriter, r *http.Request) {
	c, ok := channelVar(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown metric")
		return
	}
	s, _ := h.d.manager.Series(c)
	h.writeJSON(w, http.StatusOK, s)
}

func (h *webHandlers) status(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.d.manager.Status())
}

// historyResponse is the filtered historical table.
type historyResponse struct {
	Filters history.Filters  `json:"filters"`
	Count   int              `json:"count"`
	Records []history.Record `json:"records"`
}

// loadHistory fetches the signed-in principal's history and applies the
// query filters. It writes the error response itself and returns nil.
func (h *webHandlers) loadHistory(w http.ResponseWriter, r *http.Request) *history.Engine {
	principal, ok := h.d.session.Principal()
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "not signed in")
		return nil
	}

	q := r.URL.Query()
	limit := h.d.limit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return nil
		}
		limit = n
	}

	engine := history.NewEngine(h.d.loc)
	if err := engine.SetFilters(history.Filters{
		DateFrom: q.Get("from"),
		DateTo:   q.Get("to"),
		Search:   q.Get("search"),
	}); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	records, err := h.d.loader.Load(r.Context(), principal, limit)
	if err != nil {
		h.log.Error("web: loading history", slog.Any("err", err))
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		h.writeError(w, status, "history unavailable")
		return nil
	}
	engine.Load(records)
	return engine
}

func (h *webHandlers) history(w http.ResponseWriter, r *http.Request) {
	engine := h.loadHistory(w, r)
	if engine == nil {
		return
	}
	records := engine.Filtered()
	h.writeJSON(w, http.StatusOK, historyResponse{
		Filters: engine.Filters(),
		Count:   len(records),
		Records: records,
	})
}

func (h *webHandlers) stats(w http.ResponseWriter, r *http.Request) {
	c, ok := channelVar(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown metric")
		return
	}
	engine := h.loadHistory(w, r)
	if engine == nil {
		return
	}
	stats, ok := engine.Stats(c)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

type signInRequest struct {
	Principal string `json:"principal"`
}

func (h *webHandlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.d.session.SignIn(req.Principal); err != nil {
		if errors.Is(err, auth.ErrEmptyPrincipal) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	principal, _ := h.d.session.Principal()
	h.log.Info("web: signed in", slog.String("principal", principal))
	h.writeJSON(w, http.StatusOK, map[string]string{"principal": principal})
}

func (h *webHandlers) signOut(w http.ResponseWriter, _ *http.Request) {
	h.d.session.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (h *webHandlers) resetCharts(w http.ResponseWriter, _ *http.Request) {
	h.d.manager.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// attachError maps an Attach failure to an HTTP status.
func attachError(err error) int {
	switch {
	case errors.Is(err, telemetry.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, telemetry.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
