// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/sensor_dashboard/internal/bridge"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/device"
)

// RunProducer publishes synthetic sensor values on the device topics, one
// message per channel, until ctx is done.
func RunProducer(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()
	log = log.With(slog.String("component", "producer"))

	client, err := connectMQTT(cfg, cfg.MQTT.ClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	src := device.NewMockSource()
	ticker := time.NewTicker(cfg.Producer.Interval)
	defer ticker.Stop()

	log.Info("producer: publishing", slog.String("prefix", cfg.MQTT.DevicePrefix), slog.Duration("interval", cfg.Producer.Interval))
	for {
		select {
		case <-ctx.Done():
			log.Info("producer: shutting down")
			return nil
		case <-ticker.C:
		}

		r, err := src.Next()
		if err != nil {
			log.Error("producer: error from mock source", slog.Any("err", err))
			continue
		}
		if err := publishReading(client, cfg.MQTT.DevicePrefix, r.Timestamp, bridge.Payloads(r)); err != nil {
			log.Error("producer: publish failed", slog.Any("err", err))
			continue
		}
		log.Debug("producer: published",
			slog.Float64("temperature", r.Temperature),
			slog.Float64("acceleration", r.AccelerationTotal))
	}
}

func publishReading(client mqtt.Client, prefix string, ts time.Time, payloads map[string]string) error {
	for _, suffix := range bridge.Suffixes {
		topic := bridge.DeviceTopic(prefix, suffix)
		token := client.Publish(topic, 0, false, payloads[suffix])
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing %s at %s: %w", topic, ts.Format(time.RFC3339), err)
		}
	}
	return nil
}
