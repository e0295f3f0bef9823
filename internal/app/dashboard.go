// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/relabs-tech/sensor_dashboard/internal/auth"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/history"
	"github.com/relabs-tech/sensor_dashboard/internal/source"
	"github.com/relabs-tech/sensor_dashboard/internal/storage"
	"github.com/relabs-tech/sensor_dashboard/internal/telemetry"
)

// dashboard wires the telemetry core to its collaborators. Every display
// surface of one process shares it.
type dashboard struct {
	session  *auth.Session
	manager  *telemetry.Manager
	store    *storage.Store
	loader   *history.Loader
	loc      *time.Location
	limit    int
	registry *prometheus.Registry
	log      *slog.Logger

	stopSessionLog func()
	sessionLogDone chan struct{}
}

func newDashboard(cfg *config.Config, clientID string, log *slog.Logger) (*dashboard, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	src := source.NewMQTT(source.MQTTOptions{
		Broker:        cfg.MQTT.Broker,
		ClientID:      clientID,
		Username:      cfg.MQTT.Username,
		Password:      cfg.MQTT.Password,
		TopicTemplate: cfg.MQTT.ReadingsTopic,
		QoS:           cfg.MQTT.QoS,
		RetryInterval: cfg.MQTT.RetryInterval,
		Logger:        log,
	})

	session := auth.NewSession()
	manager := telemetry.New(src, session,
		telemetry.WithLogger(log),
		telemetry.WithRegisterer(registry),
		telemetry.WithLocation(loc),
		telemetry.WithSeriesPoints(cfg.Series.LivePoints, cfg.Series.SeedPoints),
	)

	d := &dashboard{
		session:  session,
		manager:  manager,
		store:    store,
		loader:   history.NewLoader(store, loc, log),
		loc:      loc,
		limit:    cfg.History.Limit,
		registry: registry,
		log:      log,
	}
	d.logSession()
	return d, nil
}

// logSession logs every session change until Close.
func (d *dashboard) logSession() {
	events, cancel := d.session.Subscribe()
	d.stopSessionLog = cancel
	d.sessionLogDone = make(chan struct{})
	go func() {
		defer close(d.sessionLogDone)
		for ev := range events {
			d.log.Info("dashboard: session "+ev.Kind.String(), slog.String("principal", ev.Principal))
		}
	}()
}

// seedCharts fills the chart windows from history once per sign-in, and
// again after the charts were reset.
func (d *dashboard) seedCharts(ctx context.Context) {
	principal, ok := d.session.Principal()
	if !ok || d.manager.ChartsInitialised() {
		return
	}
	records, err := d.loader.Load(ctx, principal, d.limit)
	if err != nil {
		d.log.Warn("dashboard: loading chart history", slog.Any("err", err))
		return
	}
	if err := d.manager.LoadInitialFor(principal, records); err != nil {
		d.log.Warn("dashboard: seeding charts", slog.Any("err", err))
	}
}

func (d *dashboard) Close() {
	d.stopSessionLog()
	<-d.sessionLogDone
	d.manager.Close()
	if err := d.store.Close(); err != nil {
		d.log.Warn("dashboard: closing store", slog.Any("err", err))
	}
}
