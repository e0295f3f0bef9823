// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bridge turns per-channel device topics into telemetry snapshots.
// It keeps the latest value of every channel and, on each tick, stamps a
// reading, stores it and publishes it on the principal's readings topic.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// ErrNoData is returned by Flush before any device value arrived.
var ErrNoData = errors.New("no device data yet")

// Publisher sends a retained snapshot.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Recorder persists readings for the historical view.
type Recorder interface {
	InsertReading(ctx context.Context, principal, id string, r reading.Reading) error
}

// Options configures a Bridge.
type Options struct {
	Principal    string
	DevicePrefix string
	Topic        string // snapshot topic of Principal
	Interval     time.Duration
	Publisher    Publisher
	Recorder     Recorder // optional
	Logger       *slog.Logger
	Now          func() time.Time
}

// Bridge relays device values to the dashboard.
type Bridge struct {
	opts Options
	acc  *Accumulator
	log  *slog.Logger
}

// New validates opts and creates a bridge.
func New(opts Options) (*Bridge, error) {
	if opts.Principal == "" {
		return nil, fmt.Errorf("bridge: empty principal")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("bridge: empty snapshot topic")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("bridge: nil publisher")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bridge{
		opts: opts,
		acc:  NewAccumulator(),
		log:  opts.Logger.With(slog.String("component", "bridge")),
	}, nil
}

// HandleMessage records one device message. Invalid payloads and foreign
// topics are logged and dropped.
func (b *Bridge) HandleMessage(topic string, payload []byte) {
	suffix, ok := suffixOf(b.opts.DevicePrefix, topic)
	if !ok {
		b.log.Debug("bridge: ignoring topic", slog.String("topic", topic))
		return
	}
	if err := b.acc.Set(suffix, payload); err != nil {
		b.log.Warn("bridge: invalid device value",
			slog.String("topic", topic),
			slog.String("payload", string(payload)),
			slog.Any("err", err))
		return
	}
	b.log.Debug("bridge: received", slog.String("topic", topic), slog.String("payload", string(payload)))
}

// Flush stamps the accumulated values as a new reading, stores it and
// publishes the snapshot. It returns the reading id.
func (b *Bridge) Flush(ctx context.Context) (string, error) {
	cur, ok := b.acc.Current()
	if !ok {
		return "", ErrNoData
	}

	uid, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating reading id: %w", err)
	}
	id := uid.String()
	ts := b.opts.Now().UTC()

	if b.opts.Recorder != nil {
		if err := b.opts.Recorder.InsertReading(ctx, b.opts.Principal, id, cur.Reading(ts, 0)); err != nil {
			return "", fmt.Errorf("storing reading %s: %w", id, err)
		}
	}

	payload, err := json.Marshal(reading.Snapshot{
		id: {
			Timestamp: ts.Format(time.RFC3339Nano),
			UserID:    b.opts.Principal,
			Current:   cur,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := b.opts.Publisher.Publish(b.opts.Topic, payload); err != nil {
		return "", fmt.Errorf("publishing snapshot: %w", err)
	}
	return id, nil
}

// Run flushes every interval until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("bridge: publishing",
		slog.String("topic", b.opts.Topic),
		slog.Duration("interval", b.opts.Interval))

	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			id, err := b.Flush(ctx)
			switch {
			case errors.Is(err, ErrNoData):
				b.log.Debug("bridge: nothing to publish yet")
			case err != nil:
				b.log.Error("bridge: flush failed", slog.Any("err", err))
			default:
				b.log.Info("bridge: published reading", slog.String("id", id))
			}
		}
	}
}
