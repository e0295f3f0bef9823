// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package source connects to the push telemetry feed of a principal.
package source

import (
	"errors"

	"github.com/relabs-tech/sensor_dashboard/internal/reading"
)

// ErrPermissionDenied means the feed refused the principal. Until the
// principal's first reading exists the feed answers this way, so callers
// treat it as "no data yet".
var ErrPermissionDenied = errors.New("permission denied")

// IsPermissionDenied reports whether err is, or wraps, ErrPermissionDenied.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// Handler receives deliveries of one subscription. Both funcs are called
// from the transport's goroutines and must not block for long.
type Handler struct {
	OnSnapshot func(reading.Snapshot)
	OnError    func(error)
}

// Subscription is a live listener on the feed.
type Subscription interface {
	Close() error
}

// Source opens listeners on the feed. Subscribe only fails for arguments it
// cannot use; transport problems, including refusals, arrive on
// Handler.OnError for as long as the subscription is open.
type Source interface {
	Subscribe(principal string, h Handler) (Subscription, error)
}
