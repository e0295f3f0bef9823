// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging builds the slog loggers used by every binary.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a config level name to a slog level. Unknown names are
// info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a colourised logger on stdout at the named level.
func New(level string) *slog.Logger {
	return NewWriter(os.Stdout, level)
}

// NewWriter is New with an explicit writer.
func NewWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
}
