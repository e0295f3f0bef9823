// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the system panel of the dashboard.
type Status struct {
	Online            bool       `json:"online"` // a listener is open
	Connected         bool       `json:"connected"`
	Consumers         int        `json:"consumers"`
	Principal         string     `json:"principal,omitempty"`
	ChartsInitialised bool       `json:"chartsInitialised"`
	CurrentTime       time.Time  `json:"currentTime"`
	LastReadingID     string     `json:"lastReadingId,omitempty"`
	LastUpdate        *time.Time `json:"lastUpdate,omitempty"`
	LastUpdateAgo     string     `json:"lastUpdateAgo,omitempty"`
	Uptime            string     `json:"uptime"`
}

// Status reports the listener and store state.
func (m *Manager) Status() Status {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	s := Status{
		Online:            m.sub != nil,
		Connected:         m.st.connected,
		Consumers:         m.count,
		Principal:         m.principal,
		ChartsInitialised: m.st.chartsInitialised,
		CurrentTime:       m.st.currentTime,
		LastReadingID:     m.st.lastID,
		Uptime:            strings.TrimSpace(humanize.RelTime(m.started, now, "", "")),
	}
	if !m.st.lastUpdate.IsZero() {
		last := m.st.lastUpdate
		s.LastUpdate = &last
		s.LastUpdateAgo = humanize.RelTime(last, now, "ago", "from now")
	}
	return s
}
