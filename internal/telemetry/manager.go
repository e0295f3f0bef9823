// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry is the shared dashboard store. A Manager owns the single
// live telemetry subscription, ref-counts the display surfaces attached to
// it and keeps the current metric values, orientation and chart windows.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/sensor_dashboard/internal/auth"
	"github.com/relabs-tech/sensor_dashboard/internal/orientation"
	"github.com/relabs-tech/sensor_dashboard/internal/reading"
	"github.com/relabs-tech/sensor_dashboard/internal/series"
	"github.com/relabs-tech/sensor_dashboard/internal/source"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = errors.New("manager closed")
	ErrPrincipalChanged = errors.New("principal changed")
)

// Option customises a Manager.
type Option func(*Manager)

// WithEstimator replaces the open-loop orientation estimator.
func WithEstimator(e orientation.Estimator) Option {
	return func(m *Manager) { m.est = e }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithRegisterer registers the manager metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) { m.reg = reg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLocation sets the zone chart labels are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

// WithSeriesPoints sets the live window capacity and the seed size.
func WithSeriesPoints(live, seed int) Option {
	return func(m *Manager) { m.livePoints, m.seedPoints = live, seed }
}

// WithTickInterval sets how often the status clock advances while a
// listener is open.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

// Manager is the application-owned telemetry store. Create it once with New
// and hand it to every display surface.
type Manager struct {
	src     source.Source
	session *auth.Session
	est     orientation.Estimator
	log     *slog.Logger
	reg     prometheus.Registerer
	metrics *managerMetrics
	now     func() time.Time
	loc     *time.Location
	tick    time.Duration
	started time.Time

	livePoints int
	seedPoints int

	// lifeMu guards the subscription lifecycle. Lock order is lifeMu then mu.
	lifeMu    sync.Mutex
	count     int
	epoch     uint64
	nextGen   uint64
	sub       source.Subscription
	principal string
	stopClock chan struct{}
	clockDone chan struct{}
	closed    bool

	// mu guards the committed store. Source callbacks only ever take mu.
	mu  sync.RWMutex
	gen uint64 // generation of the open listener, 0 when none
	st  state

	watchMu   sync.Mutex
	watchers  map[int]chan struct{}
	nextWatch int

	cancelSession func()
	closeOnce     sync.Once
}

// New creates a Manager reading from src on behalf of the principal signed
// in to session. The manager follows session changes from this point on: a
// sign-out, or a switch to another principal, tears the listener down
// before the session call returns.
func New(src source.Source, session *auth.Session, opts ...Option) *Manager {
	m := &Manager{
		src:        src,
		session:    session,
		est:        orientation.OpenLoop{DT: orientation.NominalDT},
		log:        slog.Default(),
		now:        time.Now,
		loc:        time.Local,
		tick:       time.Second,
		livePoints: series.LivePoints,
		seedPoints: series.SeedPoints,
		watchers:   make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.reg == nil {
		m.reg = prometheus.NewRegistry()
	}
	m.log = m.log.With(slog.String("component", "telemetry"))
	m.metrics = newManagerMetrics(m.reg)
	m.started = m.now()
	m.st = newState(series.NewSet(m.livePoints, m.seedPoints))
	m.st.currentTime = m.started

	m.cancelSession = session.OnChange(m.sessionChanged)

	return m
}

// Attach registers a display surface. The first attach opens the telemetry
// listener for the signed-in principal; later ones share it. Release the
// returned lease when the surface goes away.
func (m *Manager) Attach(ctx context.Context) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	principal, ok := m.session.Principal()
	if m.sub != nil && principal != m.principal {
		// the session moved on and its sign-out is still being delivered
		m.signOutLocked(m.principal)
	}
	if !ok {
		return nil, ErrNotAuthenticated
	}
	if m.sub == nil {
		if err := m.open(principal); err != nil {
			return nil, err
		}
	}

	m.count++
	m.metrics.Consumers.Set(float64(m.count))
	return newLease(m, m.epoch), nil
}

// detach undoes one Attach. Leases issued before a forced sign-out no longer
// count and are ignored.
func (m *Manager) detach(epoch uint64) {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if epoch != m.epoch {
		return
	}
	if m.count > 0 {
		m.count--
	}
	m.metrics.Consumers.Set(float64(m.count))
	if m.count == 0 {
		m.teardown("last consumer detached")
	}
}

// open subscribes for principal. lifeMu must be held.
func (m *Manager) open(principal string) error {
	m.nextGen++
	gen := m.nextGen

	m.mu.Lock()
	m.gen = gen
	m.mu.Unlock()

	sub, err := m.src.Subscribe(principal, source.Handler{
		OnSnapshot: func(s reading.Snapshot) { m.apply(gen, s) },
		OnError:    func(err error) { m.sourceError(gen, err) },
	})
	if err != nil {
		m.mu.Lock()
		m.gen = 0
		m.mu.Unlock()
		return fmt.Errorf("opening telemetry listener: %w", err)
	}

	m.sub = sub
	m.principal = principal
	m.startClock()
	m.metrics.ListenersOpened.Inc()
	m.log.Info("telemetry: listener opened", slog.String("principal", principal))
	return nil
}

// teardown closes the listener and the clock. lifeMu must be held.
func (m *Manager) teardown(reason string) {
	if m.sub == nil {
		return
	}

	m.mu.Lock()
	m.gen = 0
	m.st.connected = false
	m.mu.Unlock()

	m.stopClockLocked()
	if err := m.sub.Close(); err != nil {
		m.log.Warn("telemetry: closing listener", slog.Any("err", err))
	}
	m.log.Info("telemetry: listener closed",
		slog.String("principal", m.principal),
		slog.String("reason", reason))

	m.sub = nil
	m.principal = ""
	m.metrics.Connected.Set(0)
	m.notify()
}

// sessionChanged runs inside the session change.
func (m *Manager) sessionChanged(ev auth.Event) {
	if ev.Kind == auth.SignedOut {
		m.forceSignOut(ev.Principal)
	}
}

// forceSignOut drops the listener regardless of how many surfaces are
// attached and clears the store contents.
func (m *Manager) forceSignOut(principal string) {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	if m.closed {
		return
	}
	m.signOutLocked(principal)
}

// signOutLocked is forceSignOut with lifeMu held.
func (m *Manager) signOutLocked(principal string) {
	m.teardown("signed out")
	if m.count > 0 {
		m.log.Info("telemetry: detached consumers on sign-out",
			slog.String("principal", principal),
			slog.Int("consumers", m.count))
	}
	m.count = 0
	m.epoch++
	m.metrics.Consumers.Set(0)

	m.mu.Lock()
	m.st.clear()
	m.st.chartsInitialised = false
	m.st.lastID = ""
	m.st.lastUpdate = time.Time{}
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) startClock() {
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stopClock, m.clockDone = stop, done

	go func() {
		defer close(done)
		t := time.NewTicker(m.tick)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.mu.Lock()
				m.st.currentTime = m.now()
				m.mu.Unlock()
				m.notify()
			case <-stop:
				return
			}
		}
	}()
}

func (m *Manager) stopClockLocked() {
	if m.stopClock == nil {
		return
	}
	close(m.stopClock)
	<-m.clockDone
	m.stopClock, m.clockDone = nil, nil
}

// sourceError degrades connectivity. Errors never reach consumers.
func (m *Manager) sourceError(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.st.connected = false
	m.mu.Unlock()

	if source.IsPermissionDenied(err) {
		m.metrics.SourceErrors.WithLabelValues(errKindPermission).Inc()
		m.log.Info("telemetry: data not yet available", slog.Any("err", err))
	} else {
		m.metrics.SourceErrors.WithLabelValues(errKindTransport).Inc()
		m.log.Error("telemetry: source error", slog.Any("err", err))
	}
	m.metrics.Connected.Set(0)
	m.notify()
}

// Consumers returns the number of attached surfaces.
func (m *Manager) Consumers() int {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.count
}

// Listening reports whether a telemetry listener is open.
func (m *Manager) Listening() bool {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	return m.sub != nil
}

// Close stops following the session and closes the listener. Leases still
// held become no-ops.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.cancelSession()

		m.lifeMu.Lock()
		m.teardown("manager closed")
		m.count = 0
		m.epoch++
		m.closed = true
		m.metrics.Consumers.Set(0)
		m.lifeMu.Unlock()

		m.watchMu.Lock()
		for id, ch := range m.watchers {
			close(ch)
			delete(m.watchers, id)
		}
		m.watchMu.Unlock()
	})
}
