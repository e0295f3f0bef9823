// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5*time.Second, cfg.Bridge.PublishInterval)
	assert.Equal(t, 200, cfg.History.Limit)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
settings:
  log_level: debug
mqtt:
  broker: tcp://broker:1883
  username: dash
  readings_topic: telemetry/{principal}
principal: uid-7
bridge:
  publish_interval: 2s
history:
  limit: 50
  location: UTC
series:
  live_points: 30
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "dash", cfg.MQTT.Username)
	assert.Equal(t, "telemetry/{principal}", cfg.MQTT.ReadingsTopic)
	assert.Equal(t, "sensor", cfg.MQTT.DevicePrefix, "untouched keys keep defaults")
	assert.Equal(t, "uid-7", cfg.Principal)
	assert.Equal(t, 2*time.Second, cfg.Bridge.PublishInterval)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 30, cfg.Series.LivePoints)
	assert.Equal(t, 10, cfg.Series.SeedPoints)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "mqtt:\n  brokr: x\n",
		"empty broker":     "mqtt:\n  broker: \"\"\n",
		"bad qos":          "mqtt:\n  qos: 3\n",
		"bad interval":     "bridge:\n  publish_interval: 0s\n",
		"bad duration":     "producer:\n  interval: soon\n",
		"bad limit":        "history:\n  limit: -1\n",
		"bad location":     "history:\n  location: Mars/Olympus\n",
		"bad series":       "series:\n  seed_points: 0\n",
		"not a document":   "- a\n- b\n",
		"empty web listen": "web:\n  address: \"\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("principal: uid-1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", cfg.Principal)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
