// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	Settings  Settings `yaml:"settings"`
	MQTT      MQTT     `yaml:"mqtt"`
	Principal string   `yaml:"principal"` // principal the bridge and producer publish for
	Bridge    Bridge   `yaml:"bridge"`
	Producer  Producer `yaml:"producer"`
	Storage   Storage  `yaml:"storage"`
	History   History  `yaml:"history"`
	Series    Series   `yaml:"series"`
	Web       Web      `yaml:"web"`
}

type Settings struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

type MQTT struct {
	Broker   string `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      byte   `yaml:"qos"`

	ClientIDWeb      string `yaml:"client_id_web"`
	ClientIDConsole  string `yaml:"client_id_console"`
	ClientIDBridge   string `yaml:"client_id_bridge"`
	ClientIDProducer string `yaml:"client_id_producer"`

	// ReadingsTopic is the snapshot topic template; {principal} is
	// replaced by the signed-in principal.
	ReadingsTopic string `yaml:"readings_topic"`
	// DevicePrefix is the root of the per-channel device topics.
	DevicePrefix string `yaml:"device_prefix"`

	RetryInterval time.Duration `yaml:"retry_interval"`
}

type Bridge struct {
	PublishInterval time.Duration `yaml:"publish_interval"`
}

type Producer struct {
	Interval time.Duration `yaml:"interval"`
}

type Storage struct {
	Path string `yaml:"path"` // SQLite database file
}

type History struct {
	Limit    int    `yaml:"limit"`
	Location string `yaml:"location"` // IANA zone used to format and filter dates
}

type Series struct {
	LivePoints int `yaml:"live_points"`
	SeedPoints int `yaml:"seed_points"`
}

type Web struct {
	Address   string `yaml:"address"`
	StaticDir string `yaml:"static_dir"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		MQTT: MQTT{
			Broker:           "tcp://localhost:1883",
			QoS:              1,
			ClientIDWeb:      "sensor-dashboard-web",
			ClientIDConsole:  "sensor-dashboard-console",
			ClientIDBridge:   "sensor-dashboard-bridge",
			ClientIDProducer: "sensor-dashboard-producer",
			ReadingsTopic:    "sensors/{principal}/readings",
			DevicePrefix:     "sensor",
			RetryInterval:    5 * time.Second,
		},
		Bridge:   Bridge{PublishInterval: 5 * time.Second},
		Producer: Producer{Interval: time.Second},
		Storage:  Storage{Path: "sensor_dashboard.db"},
		History:  History{Limit: 200, Location: "Local"},
		Series:   Series{LivePoints: 15, SeedPoints: 10},
		Web:      Web{Address: ":8080", StaticDir: "web"},
	}
}

// Package-level singleton: InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the YAML configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document on top of Default. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0-2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.ReadingsTopic == "" {
		return fmt.Errorf("mqtt.readings_topic is required")
	}
	if c.MQTT.DevicePrefix == "" {
		return fmt.Errorf("mqtt.device_prefix is required")
	}
	if c.Bridge.PublishInterval <= 0 {
		return fmt.Errorf("bridge.publish_interval must be positive, got %s", c.Bridge.PublishInterval)
	}
	if c.Producer.Interval <= 0 {
		return fmt.Errorf("producer.interval must be positive, got %s", c.Producer.Interval)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be positive, got %d", c.History.Limit)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Series.LivePoints < 1 || c.Series.SeedPoints < 1 {
		return fmt.Errorf("series.live_points and series.seed_points must be at least 1")
	}
	if c.Web.Address == "" {
		return fmt.Errorf("web.address is required")
	}
	return nil
}

// Location resolves History.Location.
func (c *Config) Location() (*time.Location, error) {
	if c.History.Location == "" || c.History.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.History.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid history.location %q: %w", c.History.Location, err)
	}
	return loc, nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return nil.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
