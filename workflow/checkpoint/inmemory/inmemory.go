//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package inmemory provides an in-memory checkpoint saver, suitable for
// tests and single-process deployments without durability requirements.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/insighthr/hragent/workflow"
)

// Saver is an in-memory implementation of workflow.Saver. Checkpoints are
// kept per thread in version order.
type Saver struct {
	mu      sync.RWMutex
	threads map[string][]*workflow.Checkpoint
}

// NewSaver creates an empty in-memory saver.
func NewSaver() *Saver {
	return &Saver{threads: make(map[string][]*workflow.Checkpoint)}
}

// Save stores the checkpoint and assigns it the next version for its thread.
func (s *Saver) Save(_ context.Context, ckpt *workflow.Checkpoint) (int64, error) {
	if ckpt == nil || ckpt.ThreadID == "" {
		return 0, fmt.Errorf("checkpoint requires a thread ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.threads[ckpt.ThreadID]
	version := int64(1)
	if n := len(history); n > 0 {
		version = history[n-1].Version + 1
	}
	stored := *ckpt
	stored.Version = version
	s.threads[ckpt.ThreadID] = append(history, &stored)
	return version, nil
}

// Latest returns the highest-version checkpoint for the thread.
func (s *Saver) Latest(_ context.Context, threadID string) (*workflow.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.threads[threadID]
	if !ok || len(history) == 0 {
		return nil, fmt.Errorf("%w: %s", workflow.ErrThreadNotFound, threadID)
	}
	latest := *history[len(history)-1]
	return &latest, nil
}

// DeleteThread removes all checkpoints for the thread.
func (s *Saver) DeleteThread(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}

// Close releases resources. It is a no-op for the in-memory saver.
func (s *Saver) Close() error {
	return nil
}
