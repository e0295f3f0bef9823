// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package auth tracks the signed-in principal and broadcasts session
// changes.
package auth

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrEmptyPrincipal = errors.New("empty principal")

// EventKind tells what happened to the session.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event is a session change. Principal is the one signing in or out.
type Event struct {
	Kind      EventKind
	Principal string
}

// Session holds the current principal. Subscribers receive every change in
// order; each subscriber has its own buffered channel.
type Session struct {
	// pubMu serialises changes together with their delivery so events
	// arrive in the order the changes happened.
	pubMu sync.Mutex

	mu        sync.RWMutex
	principal string
	subs      map[int]*subscriber
	hooks     map[int]func(Event)
	nextID    int
}

type subscriber struct {
	ch   chan Event
	done chan struct{}
}

// NewSession creates a signed-out session.
func NewSession() *Session {
	return &Session{
		subs:  make(map[int]*subscriber),
		hooks: make(map[int]func(Event)),
	}
}

// Principal returns the signed-in principal id.
func (s *Session) Principal() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, s.principal != ""
}

// SignIn makes principal the current one. Signing in a different principal
// while signed in signs the old one out first; nobody is signed in while
// that sign-out is delivered.
func (s *Session) SignIn(principal string) error {
	principal = strings.TrimSpace(principal)
	if principal == "" {
		return ErrEmptyPrincipal
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	old := s.principal
	if old == principal {
		s.mu.Unlock()
		return nil
	}
	s.principal = ""
	s.mu.Unlock()

	if old != "" {
		s.publish(Event{Kind: SignedOut, Principal: old})
	}

	s.mu.Lock()
	s.principal = principal
	s.mu.Unlock()

	s.publish(Event{Kind: SignedIn, Principal: principal})
	return nil
}

// SignOut clears the principal. It is a no-op when nobody is signed in.
func (s *Session) SignOut() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	old := s.principal
	s.principal = ""
	s.mu.Unlock()

	if old == "" {
		return
	}
	s.publish(Event{Kind: SignedOut, Principal: old})
}

// Subscribe returns a channel of session events and a cancel func that
// closes it.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscriber{ch: make(chan Event, 8), done: make(chan struct{})}
	s.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			close(sub.done)

			s.pubMu.Lock()
			defer s.pubMu.Unlock()

			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(sub.ch)
		})
	}
}

// OnChange registers fn to run synchronously on every session change.
// SignIn and SignOut return only after every hook has returned, so state
// keyed by the principal is gone before the next caller sees the new one.
// Hooks must not call back into the session. The returned func removes the
// hook and waits for a running change to finish.
func (s *Session) OnChange(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.hooks[id] = fn
	s.mu.Unlock()

	return func() {
		s.pubMu.Lock()
		defer s.pubMu.Unlock()

		s.mu.Lock()
		delete(s.hooks, id)
		s.mu.Unlock()
	}
}

// publish must be called with pubMu held. Sign-out must never be lost, so
// a full subscriber channel blocks until it drains or the subscriber
// cancels.
func (s *Session) publish(ev Event) {
	s.mu.RLock()
	ids := make([]int, 0, len(s.hooks))
	for id := range s.hooks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hooks := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		hooks = append(hooks, s.hooks[id])
	}
	subs := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, fn := range hooks {
		fn(ev)
	}
	for _, sub := range subs {
		select {
		case sub.ch <- ev:
		case <-sub.done:
		}
	}
}
