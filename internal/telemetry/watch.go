// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

// Watch returns a channel that receives a value after every committed
// change, plus a cancel func. Notifications coalesce: a watcher that falls
// behind gets one pending signal and re-reads the current state.
func (m *Manager) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	m.watchMu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = ch
	m.watchMu.Unlock()

	return ch, func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		if c, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(c)
		}
	}
}

func (m *Manager) notify() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	for _, ch := range m.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
