//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Checkpoint sources.
const (
	// CheckpointSourceInput marks the checkpoint written when a new turn's
	// input is applied.
	CheckpointSourceInput = "input"
	// CheckpointSourceLoop marks checkpoints written after node transitions.
	CheckpointSourceLoop = "loop"
	// CheckpointSourceInterrupt marks the checkpoint written on suspension.
	CheckpointSourceInterrupt = "interrupt"
)

// Checkpoint is an immutable snapshot of a thread's execution state plus the
// identity of the next node to run. One is written after every node
// transition; the latest version wins on load.
type Checkpoint struct {
	// ID is the unique identifier of this checkpoint.
	ID string `json:"id"`
	// ThreadID is the conversation thread the checkpoint belongs to.
	ThreadID string `json:"thread_id"`
	// Version is assigned by the saver, strictly increasing per thread.
	Version int64 `json:"version"`
	// Timestamp is when the checkpoint was created.
	Timestamp time.Time `json:"ts"`
	// State holds the schema-declared state fields in serialized form.
	State map[string]json.RawMessage `json:"state"`
	// NextNode is the node to execute when the thread continues.
	NextNode string `json:"next_node"`
	// Interrupt is non-nil only while the thread awaits a human decision.
	Interrupt *InterruptState `json:"interrupt,omitempty"`
	// Source indicates how the checkpoint was created.
	Source string `json:"source"`
}

// InterruptState captures a pending approval and the decisions already
// consumed in the interrupted node, so multi-step approvals survive process
// restarts.
type InterruptState struct {
	// NodeID is the node at which execution paused.
	NodeID string `json:"node_id"`
	// Key identifies the interrupt point awaiting a decision.
	Key string `json:"key"`
	// Request is the outstanding approval request.
	Request *InterruptRequest `json:"request"`
	// Resumed maps interrupt keys to decisions already consumed.
	Resumed map[string]ResumeDecision `json:"resumed,omitempty"`
}

// NewCheckpoint creates a checkpoint for the given thread.
func NewCheckpoint(threadID string, state map[string]json.RawMessage, nextNode, source string) *Checkpoint {
	return &Checkpoint{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
		Source:    source,
	}
}

// Saver is the durable, versioned checkpoint store. Implementations must
// support safe concurrent access from many threads-of-control; per-thread
// atomicity suffices.
type Saver interface {
	// Save persists the checkpoint, assigns it the next strictly increasing
	// version for its thread, and returns that version.
	Save(ctx context.Context, ckpt *Checkpoint) (int64, error)

	// Latest returns the most recent checkpoint for the thread, or
	// ErrThreadNotFound.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// DeleteThread removes all checkpoints for the thread. Deleting an
	// unknown thread is a no-op.
	DeleteThread(ctx context.Context, threadID string) error

	// Close releases resources held by the saver.
	Close() error
}
