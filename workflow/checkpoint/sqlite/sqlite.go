//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package sqlite provides a SQLite-backed checkpoint saver for durable
// thread state that survives process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/insighthr/hragent/workflow"
)

const (
	sqliteCreateCheckpoints = "CREATE TABLE IF NOT EXISTS checkpoints (" +
		"thread_id TEXT NOT NULL, " +
		"version INTEGER NOT NULL, " +
		"checkpoint_id TEXT NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"next_node TEXT NOT NULL, " +
		"source TEXT NOT NULL, " +
		"state_json BLOB NOT NULL, " +
		"interrupt_json BLOB, " +
		"PRIMARY KEY (thread_id, version)" +
		")"

	sqliteSelectNextVersion = "SELECT COALESCE(MAX(version), 0) + 1 FROM checkpoints " +
		"WHERE thread_id = ?"

	sqliteInsertCheckpoint = "INSERT INTO checkpoints (" +
		"thread_id, version, checkpoint_id, ts, next_node, source, state_json, interrupt_json) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

	sqliteSelectLatest = "SELECT version, checkpoint_id, ts, next_node, source, state_json, interrupt_json " +
		"FROM checkpoints WHERE thread_id = ? ORDER BY version DESC LIMIT 1"

	sqliteDeleteThread = "DELETE FROM checkpoints WHERE thread_id = ?"
)

// Saver is a SQLite-backed implementation of workflow.Saver. It expects an
// initialized *sql.DB and creates the required schema. Version assignment
// happens inside a transaction, so concurrent writers on the same thread
// cannot claim the same version.
type Saver struct {
	db *sql.DB
}

// NewSaver creates a saver using the provided DB. The DB must use a SQLite
// driver.
func NewSaver(db *sql.DB) (*Saver, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if _, err := db.Exec(sqliteCreateCheckpoints); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db}, nil
}

// Save persists the checkpoint with the next version for its thread.
func (s *Saver) Save(ctx context.Context, ckpt *workflow.Checkpoint) (int64, error) {
	if ckpt == nil || ckpt.ThreadID == "" {
		return 0, errors.New("checkpoint requires a thread ID")
	}
	stateJSON, err := json.Marshal(ckpt.State)
	if err != nil {
		return 0, fmt.Errorf("marshal state: %w", err)
	}
	var interruptJSON []byte
	if ckpt.Interrupt != nil {
		interruptJSON, err = json.Marshal(ckpt.Interrupt)
		if err != nil {
			return 0, fmt.Errorf("marshal interrupt: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var version int64
	if err := tx.QueryRowContext(ctx, sqliteSelectNextVersion, ckpt.ThreadID).Scan(&version); err != nil {
		return 0, fmt.Errorf("next version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteInsertCheckpoint,
		ckpt.ThreadID, version, ckpt.ID, ckpt.Timestamp.UnixNano(),
		ckpt.NextNode, ckpt.Source, stateJSON, interruptJSON); err != nil {
		return 0, fmt.Errorf("insert checkpoint: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

// Latest returns the highest-version checkpoint for the thread.
func (s *Saver) Latest(ctx context.Context, threadID string) (*workflow.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelectLatest, threadID)
	var (
		ckpt          workflow.Checkpoint
		ts            int64
		stateJSON     []byte
		interruptJSON []byte
	)
	err := row.Scan(&ckpt.Version, &ckpt.ID, &ts, &ckpt.NextNode, &ckpt.Source,
		&stateJSON, &interruptJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", workflow.ErrThreadNotFound, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest checkpoint: %w", err)
	}
	ckpt.ThreadID = threadID
	ckpt.Timestamp = time.Unix(0, ts).UTC()
	if err := json.Unmarshal(stateJSON, &ckpt.State); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if len(interruptJSON) > 0 {
		ckpt.Interrupt = &workflow.InterruptState{}
		if err := json.Unmarshal(interruptJSON, ckpt.Interrupt); err != nil {
			return nil, fmt.Errorf("unmarshal interrupt: %w", err)
		}
	}
	return &ckpt, nil
}

// DeleteThread removes all checkpoints for the thread.
func (s *Saver) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, sqliteDeleteThread, threadID); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Saver) Close() error {
	return s.db.Close()
}
