// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/relabs-tech/sensor_dashboard/internal/bridge"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/source"
	"github.com/relabs-tech/sensor_dashboard/internal/storage"
)

// RunBridge relays the device topics of the configured principal into
// stored readings and retained snapshots until ctx is done.
func RunBridge(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()
	if cfg.Principal == "" {
		return fmt.Errorf("bridge: principal is required")
	}

	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	client, err := connectMQTT(cfg, cfg.MQTT.ClientIDBridge, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	b, err := bridge.New(bridge.Options{
		Principal:    cfg.Principal,
		DevicePrefix: cfg.MQTT.DevicePrefix,
		Topic:        source.Topic(cfg.MQTT.ReadingsTopic, cfg.Principal),
		Interval:     cfg.Bridge.PublishInterval,
		Publisher:    bridge.MQTTPublisher{Client: client, QoS: cfg.MQTT.QoS},
		Recorder:     store,
		Logger:       log,
	})
	if err != nil {
		return err
	}
	if err := bridge.SubscribeDevice(client, b, cfg.MQTT.QoS); err != nil {
		return err
	}
	log.Info("bridge: subscribed device topics", slog.String("prefix", cfg.MQTT.DevicePrefix))

	return b.Run(ctx)
}
