//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package session maps externally issued session identifiers to employee
// identities with TTL-based expiry.
package session

import (
	"context"
	"errors"
	"time"
)

// Errors returned by session services.
var (
	// ErrSessionIDRequired is returned when the session id is empty.
	ErrSessionIDRequired = errors.New("session id is required")
	// ErrEmployeeIDRequired is returned when the employee id is empty.
	ErrEmployeeIDRequired = errors.New("employee id is required")
	// ErrSessionNotFound is returned for a session id that was never initiated
	// or was deleted.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the session's TTL has elapsed.
	ErrSessionExpired = errors.New("session expired")
)

// Context associates a session id with an employee identity.
type Context struct {
	SessionID    string        `json:"session_id"`
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Admin        bool          `json:"admin,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	TTL          time.Duration `json:"ttl"`
}

// ExpiresAt returns the instant after which the session is expired.
// A zero TTL means the session never expires.
func (c *Context) ExpiresAt() time.Time {
	if c.TTL <= 0 {
		return time.Time{}
	}
	return c.CreatedAt.Add(c.TTL)
}

// Expired reports whether the session is expired at the given instant.
func (c *Context) Expired(now time.Time) bool {
	exp := c.ExpiresAt()
	return !exp.IsZero() && now.After(exp)
}

// Validate checks the required fields of a session context.
func (c *Context) Validate() error {
	if c.SessionID == "" {
		return ErrSessionIDRequired
	}
	if c.EmployeeID == "" {
		return ErrEmployeeIDRequired
	}
	return nil
}

// Service is the interface that all session stores must implement.
// Init for an existing session id overwrites (last-writer-wins); sessions are
// not append-only.
type Service interface {
	// Init creates or replaces the session context for its session id.
	Init(ctx context.Context, sc Context) error

	// Get returns the session context for the id. It returns
	// ErrSessionExpired strictly after CreatedAt+TTL and ErrSessionNotFound
	// for an id that was never initiated or was deleted.
	Get(ctx context.Context, sessionID string) (*Context, error)

	// Delete removes the session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, sessionID string) error

	// Close closes the service.
	Close() error
}
