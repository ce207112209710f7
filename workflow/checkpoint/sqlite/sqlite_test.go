//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/insighthr/hragent/workflow"
)

func newTestSaver(t *testing.T) *Saver {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ckpt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	saver, err := NewSaver(db)
	require.NoError(t, err)
	return saver
}

func testCheckpoint(threadID string) *workflow.Checkpoint {
	return workflow.NewCheckpoint(threadID,
		map[string]json.RawMessage{"counter": json.RawMessage("1")},
		"next", workflow.CheckpointSourceLoop)
}

func TestSaveAssignsIncreasingVersions(t *testing.T) {
	saver := newTestSaver(t)
	ctx := context.Background()

	v1, err := saver.Save(ctx, testCheckpoint("t1"))
	require.NoError(t, err)
	v2, err := saver.Save(ctx, testCheckpoint("t1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)
	assert.Equal(t, int64(2), v2)

	// Versions are per thread.
	other, err := saver.Save(ctx, testCheckpoint("t2"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestLatestRoundTrip(t *testing.T) {
	saver := newTestSaver(t)
	ctx := context.Background()

	ckpt := testCheckpoint("t1")
	ckpt.Interrupt = &workflow.InterruptState{
		NodeID: "gate",
		Key:    "confirm",
		Request: &workflow.InterruptRequest{
			Message: "proceed?",
			Options: []string{workflow.ActionApprove},
		},
		Resumed: map[string]workflow.ResumeDecision{
			"earlier": {Action: workflow.ActionApprove},
		},
	}
	_, err := saver.Save(ctx, ckpt)
	require.NoError(t, err)

	got, err := saver.Latest(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "next", got.NextNode)
	assert.Equal(t, json.RawMessage("1"), got.State["counter"])
	require.NotNil(t, got.Interrupt)
	assert.Equal(t, "gate", got.Interrupt.NodeID)
	assert.Equal(t, "proceed?", got.Interrupt.Request.Message)
	assert.Contains(t, got.Interrupt.Resumed, "earlier")
}

func TestLatestUnknownThread(t *testing.T) {
	saver := newTestSaver(t)
	_, err := saver.Latest(context.Background(), "ghost")
	assert.ErrorIs(t, err, workflow.ErrThreadNotFound)
}

func TestDeleteThread(t *testing.T) {
	saver := newTestSaver(t)
	ctx := context.Background()

	_, err := saver.Save(ctx, testCheckpoint("t1"))
	require.NoError(t, err)
	require.NoError(t, saver.DeleteThread(ctx, "t1"))

	_, err = saver.Latest(ctx, "t1")
	assert.ErrorIs(t, err, workflow.ErrThreadNotFound)

	// Deleting an unknown thread is a no-op.
	assert.NoError(t, saver.DeleteThread(ctx, "ghost"))
}
