//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package identity carries the acting employee through a turn's execution as
// an execution-scoped context value, so nodes and tools can read it without
// it appearing in tool call signatures. The value is bound per turn and never
// shared across concurrently executing turns.
package identity

import (
	"context"
	"errors"
)

// ErrNoIdentity is returned when a tool needs an employee identity and
// neither the ambient context nor an explicit admin argument provides one.
var ErrNoIdentity = errors.New("no employee identity in context")

// Identity names the employee a turn is acting on behalf of.
type Identity struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	// Admin marks identities that may drive admin tools against other
	// employees.
	Admin bool `json:"admin,omitempty"`
}

type contextKey struct{}

// NewContext returns a context carrying the identity.
func NewContext(parent context.Context, id Identity) context.Context {
	return context.WithValue(parent, contextKey{}, id)
}

// FromContext returns the identity bound to the context, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Resolve determines which employee a tool call acts on. The ambient
// identity wins over an explicit employee argument, except for admin tools,
// where a non-empty explicit argument deliberately overrides the ambient
// caller: admin tools must be able to act on employees other than the
// caller. With no ambient identity and no explicit argument the call fails;
// there is no default employee.
func Resolve(ctx context.Context, explicitID string, adminTool bool) (string, error) {
	ambient, ok := FromContext(ctx)
	if adminTool && explicitID != "" {
		return explicitID, nil
	}
	if ok && ambient.EmployeeID != "" {
		return ambient.EmployeeID, nil
	}
	return "", ErrNoIdentity
}
