//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insighthr/hragent/session"
)

func TestInitAndGet(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, session.Context{
		SessionID:    "s1",
		EmployeeID:   "emp-1",
		EmployeeName: "Alice",
		TTL:          time.Hour,
	}))

	sc, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", sc.EmployeeID)
	assert.False(t, sc.CreatedAt.IsZero())
}

func TestInitValidation(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	err := svc.Init(ctx, session.Context{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, session.ErrSessionIDRequired)

	err = svc.Init(ctx, session.Context{SessionID: "s1"})
	assert.ErrorIs(t, err, session.ErrEmployeeIDRequired)
}

func TestInitOverwrites(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, session.Context{SessionID: "s1", EmployeeID: "emp-1"}))
	require.NoError(t, svc.Init(ctx, session.Context{SessionID: "s1", EmployeeID: "emp-2"}))

	sc, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "emp-2", sc.EmployeeID)
}

func TestExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewService(WithClock(clock))
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, session.Context{
		SessionID:  "s1",
		EmployeeID: "emp-1",
		CreatedAt:  now,
		TTL:        time.Hour,
	}))

	// Exactly at the deadline the session is still valid.
	now = now.Add(time.Hour)
	_, err := svc.Get(ctx, "s1")
	assert.NoError(t, err)

	// One instant past the deadline it expires and is removed.
	now = now.Add(time.Nanosecond)
	_, err = svc.Get(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionExpired)

	_, err = svc.Get(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, session.Context{
		SessionID: "s1", EmployeeID: "emp-1", CreatedAt: now,
	}))

	now = now.AddDate(1, 0, 0)
	_, err := svc.Get(ctx, "s1")
	assert.NoError(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	require.NoError(t, svc.Init(ctx, session.Context{SessionID: "s1", EmployeeID: "emp-1"}))
	require.NoError(t, svc.Delete(ctx, "s1"))
	require.NoError(t, svc.Delete(ctx, "s1"))

	_, err := svc.Get(ctx, "s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestGetRequiresID(t *testing.T) {
	svc := NewService()
	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrSessionIDRequired)
}

func TestCloseIsIdempotent(t *testing.T) {
	svc := NewService(WithSweepInterval(time.Millisecond))
	assert.NoError(t, svc.Close())
	assert.NoError(t, svc.Close())
}
