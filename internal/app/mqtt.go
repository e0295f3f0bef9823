// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/sensor_dashboard/internal/config"
)

// connectMQTT connects a paho client with the configured broker and
// credentials.
func connectMQTT(cfg *config.Config, clientID string, log *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(clientID).
		SetUsername(cfg.MQTT.Username).
		SetPassword(cfg.MQTT.Password).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn("mqtt: connection lost", slog.Any("err", err))
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Info("mqtt: connected", slog.String("broker", cfg.MQTT.Broker), slog.String("client_id", clientID))
	return client, nil
}
