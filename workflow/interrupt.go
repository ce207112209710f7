//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import (
	"fmt"
)

// Resume decision actions. A request's Options lists the subset a human may
// choose from.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionEdit    = "edit"
)

// InterruptRequest is the structured payload describing a pending human
// approval. It is persisted with the checkpoint and returned to the caller
// when a turn suspends.
type InterruptRequest struct {
	// Action is the semantic tag of the request, e.g. "tool_approval".
	Action string `json:"action"`
	// Message is the human-readable prompt.
	Message string `json:"message"`
	// Details is a key/value snapshot of the proposed action.
	Details map[string]any `json:"details,omitempty"`
	// EditableFields lists the Details keys a human may override.
	EditableFields []string `json:"editable_fields,omitempty"`
	// Options is the closed set of allowed decision actions.
	Options []string `json:"options"`
	// Step and TotalSteps describe multi-step approval sequences.
	Step       int `json:"step,omitempty"`
	TotalSteps int `json:"total_steps,omitempty"`
}

// Allows reports whether the given decision action is in the request's
// option set.
func (r *InterruptRequest) Allows(action string) bool {
	for _, opt := range r.Options {
		if opt == action {
			return true
		}
	}
	return false
}

// ResumeDecision is the human input supplied to continue a suspended thread.
// It is consumed exactly once.
type ResumeDecision struct {
	// Action must be one of the outstanding request's Options.
	Action string `json:"action"`
	// Overrides carries edited values for the request's EditableFields.
	Overrides map[string]any `json:"overrides,omitempty"`
	// CheckpointVersion, when non-zero, is the version the decision was
	// issued against; a mismatch fails the resume instead of applying it.
	CheckpointVersion int64 `json:"checkpoint_version,omitempty"`
}

// Approved reports whether the decision permits the proposed action.
func (d ResumeDecision) Approved() bool {
	return d.Action == ActionApprove || d.Action == ActionEdit
}

// InterruptError signals that execution paused at an approval gate. The
// executor persists the interrupt with the checkpoint and surfaces the
// request to the caller; it is not a failure.
type InterruptError struct {
	// Key identifies the interrupt point within the node, so a node raising
	// several sequential interrupts can find each decision on re-execution.
	Key string
	// Request describes the pending approval.
	Request *InterruptRequest
}

// Error returns the error message for the interrupt.
func (e *InterruptError) Error() string {
	return fmt.Sprintf("execution interrupted awaiting decision for %s", e.Key)
}

// IsInterruptError checks whether an error is an *InterruptError.
func IsInterruptError(err error) bool {
	_, ok := err.(*InterruptError)
	return ok
}

// Interrupt returns the consumed resume decision for key if the current
// execution carries one, and otherwise raises an *InterruptError with the
// given request. Nodes call it at each approval point; on resume the node is
// re-executed and earlier approval points find their stored decisions.
func Interrupt(state State, key string, req *InterruptRequest) (*ResumeDecision, error) {
	execCtx, ok := state[stateKeyExecContext].(*ExecContext)
	if !ok {
		return nil, fmt.Errorf("no execution context in state")
	}
	if decision, ok := execCtx.resumed[key]; ok {
		return &decision, nil
	}
	return nil, &InterruptError{Key: key, Request: req}
}
