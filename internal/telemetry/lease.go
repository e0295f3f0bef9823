// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"sync"

	"github.com/google/uuid"
)

// Lease is one attached display surface.
type Lease struct {
	id    string
	m     *Manager
	epoch uint64
	once  sync.Once
}

func newLease(m *Manager, epoch uint64) *Lease {
	return &Lease{id: uuid.NewString(), m: m, epoch: epoch}
}

// ID identifies the lease in logs.
func (l *Lease) ID() string { return l.id }

// Release detaches the surface. Only the first call has an effect.
func (l *Lease) Release() {
	l.once.Do(func() { l.m.detach(l.epoch) })
}
