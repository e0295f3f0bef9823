// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bridge

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher publishes retained snapshots with a paho client.
type MQTTPublisher struct {
	Client  mqtt.Client
	QoS     byte
	Timeout time.Duration
}

// Publish implements Publisher.
func (p MQTTPublisher) Publish(topic string, payload []byte) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	token := p.Client.Publish(topic, p.QoS, true, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publishing to %s: timed out after %s", topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// SubscribeDevice routes every device topic under b's prefix to
// b.HandleMessage.
func SubscribeDevice(client mqtt.Client, b *Bridge, qos byte) error {
	filters := make(map[string]byte, len(Suffixes))
	for _, t := range DeviceTopics(b.opts.DevicePrefix) {
		filters[t] = qos
	}
	token := client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		b.HandleMessage(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing device topics: %w", err)
	}
	return nil
}
