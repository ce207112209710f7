//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package inmemory provides an in-memory session service with lazy TTL
// expiry and an optional background sweep.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/insighthr/hragent/session"
)

// Service is an in-memory implementation of session.Service.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]session.Context

	sweepInterval time.Duration
	done          chan struct{}
	closeOnce     sync.Once

	// now is swappable for tests.
	now func() time.Time
}

// ServiceOpt configures the in-memory session service.
type ServiceOpt func(*Service)

// WithSweepInterval enables a background goroutine that periodically removes
// expired sessions. Expiry is still evaluated lazily on Get; the sweep only
// reclaims memory.
func WithSweepInterval(interval time.Duration) ServiceOpt {
	return func(s *Service) { s.sweepInterval = interval }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOpt {
	return func(s *Service) { s.now = now }
}

// NewService creates a new in-memory session service.
func NewService(opts ...ServiceOpt) *Service {
	s := &Service{
		sessions: make(map[string]session.Context),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepInterval > 0 {
		go s.sweep()
	}
	return s
}

// Init creates or replaces the session context. Last writer wins.
func (s *Service) Init(_ context.Context, sc session.Context) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sc.SessionID] = sc
	return nil
}

// Get returns the session context for the id, evaluating expiry lazily.
// An expired session is removed on access.
func (s *Service) Get(_ context.Context, sessionID string) (*session.Context, error) {
	if sessionID == "" {
		return nil, session.ErrSessionIDRequired
	}
	s.mu.RLock()
	sc, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if sc.Expired(s.now()) {
		s.mu.Lock()
		// Recheck under the write lock; Init may have replaced it.
		if cur, ok := s.sessions[sessionID]; ok && cur.Expired(s.now()) {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
		return nil, session.ErrSessionExpired
	}
	copied := sc
	return &copied, nil
}

// Delete removes the session. Deleting an absent session is a no-op.
func (s *Service) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close stops the background sweep if one is running.
func (s *Service) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *Service) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, sc := range s.sessions {
				if sc.Expired(now) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
