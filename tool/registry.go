//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Errors returned by the registry.
var (
	// ErrToolNotFound indicates the named tool is not registered.
	ErrToolNotFound = errors.New("tool not found")
	// ErrDuplicateTool indicates a tool with the same name is already registered.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Registry maps tool names to callable tools together with their dispatch
// policy: whether a call is sensitive (requires human approval), how many
// approval steps it needs, and whether it is an admin tool allowed to act on
// an employee other than the caller.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	tool          CallableTool
	sensitive     bool
	approvalSteps int
	admin         bool
}

// RegisterOption configures a single tool registration.
type RegisterOption func(*registryEntry)

// WithSensitive marks the tool as requiring human approval before execution.
func WithSensitive() RegisterOption {
	return func(e *registryEntry) {
		e.sensitive = true
		if e.approvalSteps == 0 {
			e.approvalSteps = 1
		}
	}
}

// WithApprovalSteps sets the number of sequential approvals a sensitive tool
// needs. Implies WithSensitive.
func WithApprovalSteps(n int) RegisterOption {
	return func(e *registryEntry) {
		e.sensitive = true
		e.approvalSteps = n
	}
}

// WithAdmin marks the tool as an admin tool that may act on an explicitly
// named employee instead of the ambient caller.
func WithAdmin() RegisterOption {
	return func(e *registryEntry) { e.admin = true }
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds a tool to the registry. Registering a name twice is an error.
func (r *Registry) Register(t CallableTool, opts ...RegisterOption) error {
	decl := t.Declaration()
	if decl == nil || decl.Name == "" {
		return errors.New("tool declaration must have a name")
	}
	entry := &registryEntry{tool: t}
	for _, opt := range opts {
		opt(entry)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[decl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, decl.Name)
	}
	r.entries[decl.Name] = entry
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (CallableTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Tools returns the registered tools keyed by name, for binding to a model.
func (r *Registry) Tools() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Tool, len(r.entries))
	for name, e := range r.entries {
		result[name] = e.tool
	}
	return result
}

// IsSensitive reports whether the named tool requires human approval.
// Unknown tools are treated as sensitive so that nothing unlisted can run
// without a human in the loop.
func (r *Registry) IsSensitive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return true
	}
	return e.sensitive
}

// ApprovalSteps returns how many sequential approvals the named tool needs.
// Returns 0 for non-sensitive tools.
func (r *Registry) ApprovalSteps(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok || !e.sensitive {
		if !ok {
			return 1
		}
		return 0
	}
	return e.approvalSteps
}

// IsAdmin reports whether the named tool may act on an explicit employee.
func (r *Registry) IsAdmin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return ok && e.admin
}

// Validate checks that the tool exists and that the json-encoded arguments
// carry every required field of the tool's input schema. It is called before
// every dispatch, including re-entrant calls after a previous tool result.
func (r *Registry) Validate(name string, jsonArgs []byte) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	schema := e.tool.Declaration().InputSchema
	if schema == nil || len(schema.Required) == 0 {
		return nil
	}
	var args map[string]json.RawMessage
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &args); err != nil {
			return fmt.Errorf("tool %s: invalid arguments: %w", name, err)
		}
	}
	for _, field := range schema.Required {
		if _, present := args[field]; !present {
			return fmt.Errorf("tool %s: missing required argument %q", name, field)
		}
	}
	return nil
}

// Call validates the arguments and dispatches to the named tool.
func (r *Registry) Call(ctx context.Context, name string, jsonArgs []byte) (any, error) {
	if err := r.Validate(name, jsonArgs); err != nil {
		return nil, err
	}
	t, _ := r.Lookup(name)
	return t.Call(ctx, jsonArgs)
}
