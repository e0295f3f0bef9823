// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// PrincipalPlaceholder is replaced by the principal id in topic templates.
const PrincipalPlaceholder = "{principal}"

// DefaultTopicTemplate is where the bridge publishes snapshots.
const DefaultTopicTemplate = "sensors/" + PrincipalPlaceholder + "/readings"

// MQTTOptions configures the MQTT feed.
type MQTTOptions struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	TopicTemplate string
	QoS           byte
	RetryInterval time.Duration // between failed connection attempts
	Logger        *slog.Logger
}

// MQTT is a Source backed by an MQTT broker. Each subscription owns its own
// client connection.
type MQTT struct {
	opts MQTTOptions
}

// NewMQTT creates the source. Missing options get defaults.
func NewMQTT(opts MQTTOptions) *MQTT {
	if opts.TopicTemplate == "" {
		opts.TopicTemplate = DefaultTopicTemplate
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &MQTT{opts: opts}
}

// Topic returns the snapshot topic of principal.
func Topic(template, principal string) string {
	return strings.ReplaceAll(template, PrincipalPlaceholder, principal)
}

// Subscribe implements Source.
func (m *MQTT) Subscribe(principal string, h Handler) (Subscription, error) {
	if principal == "" {
		return nil, fmt.Errorf("subscribing: empty principal")
	}
	if strings.ContainsAny(principal, "/+#") {
		return nil, fmt.Errorf("subscribing: invalid principal %q", principal)
	}
	if h.OnSnapshot == nil {
		return nil, fmt.Errorf("subscribing: nil snapshot handler")
	}
	if h.OnError == nil {
		h.OnError = func(error) {}
	}

	s := &mqttSubscription{
		topic:   Topic(m.opts.TopicTemplate, principal),
		qos:     m.opts.QoS,
		retry:   m.opts.RetryInterval,
		handler: h,
		log:     m.opts.Logger.With(slog.String("component", "source")),
		done:    make(chan struct{}),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(m.opts.Broker).
		SetClientID(m.opts.ClientID).
		SetUsername(m.opts.Username).
		SetPassword(m.opts.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.handler.OnError(fmt.Errorf("connection lost: %w", err))
		})

	s.client = mqtt.NewClient(opts)

	s.wg.Add(1)
	go s.connect()

	return s, nil
}

type mqttSubscription struct {
	client  mqtt.Client
	topic   string
	qos     byte
	retry   time.Duration
	handler Handler
	log     *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// connect keeps trying until the first connection succeeds; after that
// paho's auto-reconnect takes over.
func (s *mqttSubscription) connect() {
	defer s.wg.Done()

	for {
		token := s.client.Connect()
		select {
		case <-token.Done():
		case <-s.done:
			return
		}

		err := token.Error()
		if err == nil {
			return
		}
		s.handler.OnError(classifyConnectError(err))

		select {
		case <-time.After(s.retry):
		case <-s.done:
			return
		}
	}
}

func (s *mqttSubscription) onConnect(c mqtt.Client) {
	select {
	case <-s.done:
		return
	default:
	}

	token := c.Subscribe(s.topic, s.qos, s.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.handler.OnError(classifySubscribeError(err))
		return
	}
	if st, ok := token.(*mqtt.SubscribeToken); ok {
		for topic, code := range st.Result() {
			if code >= 0x80 {
				s.handler.OnError(fmt.Errorf("subscribing %s (code 0x%02x): %w", topic, code, ErrPermissionDenied))
				return
			}
		}
	}
	s.log.Info("source: subscribed", slog.String("topic", s.topic))
}

func (s *mqttSubscription) onMessage(_ mqtt.Client, msg mqtt.Message) {
	select {
	case <-s.done:
		return
	default:
	}

	var snap reading.Snapshot
	if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
		s.handler.OnError(fmt.Errorf("decoding snapshot on %s: %w", msg.Topic(), err))
		return
	}
	s.handler.OnSnapshot(snap)
}

// Close unsubscribes and disconnects. It is safe to call more than once.
func (s *mqttSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		if s.client.IsConnectionOpen() {
			token := s.client.Unsubscribe(s.topic)
			if token.WaitTimeout(time.Second) && token.Error() != nil {
				err = fmt.Errorf("unsubscribing %s: %w", s.topic, token.Error())
			}
		}
		s.client.Disconnect(250)
	})
	return err
}

func classifyConnectError(err error) error {
	if errors.Is(err, packets.ErrorRefusedNotAuthorised) || errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword) {
		return fmt.Errorf("connecting: %w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("connecting: %w", err)
}

func classifySubscribeError(err error) error {
	if strings.Contains(strings.ToLower(err.Error()), "not authori") {
		return fmt.Errorf("subscribing: %w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("subscribing: %w", err)
}
