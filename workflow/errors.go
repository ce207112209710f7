//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import "errors"

// Errors.
var (
	// ErrThreadNotFound is returned when no checkpoint exists for a thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrStaleCheckpoint is returned when a resume is applied against a
	// thread state that has moved on, e.g. a decision consumed twice.
	ErrStaleCheckpoint = errors.New("stale checkpoint")
	// ErrInvalidResumeAction is returned when a resume decision's action is
	// not among the outstanding request's options. The thread state is not
	// mutated.
	ErrInvalidResumeAction = errors.New("resume action not permitted by pending request")
)
