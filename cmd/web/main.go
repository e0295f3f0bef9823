// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/sensor_dashboard/internal/app"
	"github.com/relabs-tech/sensor_dashboard/internal/config"
	"github.com/relabs-tech/sensor_dashboard/internal/logging"
)

func main() {
	configPath := flag.String("config", "dashboard.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(config.Get().Settings.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting sensor-dashboard web dashboard (API, WebSocket stream, static frontend)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunWeb(ctx, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
