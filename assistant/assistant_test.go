//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package assistant_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insighthr/hragent/assistant"
	"github.com/insighthr/hragent/knowledge/document"
	"github.com/insighthr/hragent/knowledge/retriever"
	vsinmemory "github.com/insighthr/hragent/knowledge/vectorstore/inmemory"
	"github.com/insighthr/hragent/model"
	"github.com/insighthr/hragent/session"
	sessinmemory "github.com/insighthr/hragent/session/inmemory"
	"github.com/insighthr/hragent/tool/hrms"
	hrmsinmemory "github.com/insighthr/hragent/tool/hrms/inmemory"
	"github.com/insighthr/hragent/workflow"
	ckptinmemory "github.com/insighthr/hragent/workflow/checkpoint/inmemory"
)

// scriptedModel answers model calls through a script function, so tests can
// steer decide, grade, rewrite, and generate deterministically.
type scriptedModel struct {
	mu     sync.Mutex
	calls  int
	script func(call int, req *model.Request) *model.Response
}

func (m *scriptedModel) GenerateContent(_ context.Context, req *model.Request) (*model.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.script(m.calls, req), nil
}

func (m *scriptedModel) Info() model.Info { return model.Info{Name: "scripted"} }

func answer(text string) *model.Response {
	return &model.Response{Message: model.NewAssistantMessage(text)}
}

func toolCall(id, name string, args map[string]any) *model.Response {
	raw, _ := json.Marshal(args)
	return &model.Response{Message: model.Message{
		Role: model.RoleAssistant,
		ToolCalls: []model.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: model.FunctionCall{Name: name, Arguments: raw},
		}},
	}}
}

func searchCall(query string) *model.Response {
	return toolCall("search-1", "search_knowledge_base", map[string]any{"query": query})
}

func verdict(relevant bool) *model.Response {
	return answer(fmt.Sprintf(`{"relevant": %t}`, relevant))
}

type fixture struct {
	assistant *assistant.Assistant
	hrms      *hrmsinmemory.Client
	sessions  *sessinmemory.Service
	saver     *ckptinmemory.Saver
}

type fixtureEmbedder struct{}

func (fixtureEmbedder) GetEmbedding(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (fixtureEmbedder) GetDimensions() int { return 2 }

func newFixture(t *testing.T, m model.Model, opts ...assistant.Option) *fixture {
	t.Helper()
	ctx := context.Background()

	store := vsinmemory.New()
	require.NoError(t, store.Add(ctx, &document.Document{
		ID:         "leave-policy",
		Content:    "Employees get 15 annual leave days per year.",
		OwnerScope: document.ScopeCompany,
	}, []float64{1, 0}))
	retr, err := retriever.New(fixtureEmbedder{}, store)
	require.NoError(t, err)

	hrmsClient := hrmsinmemory.New()
	hrmsClient.AddEmployee(
		hrms.Employee{ID: "emp-alice", Name: "Alice"},
		hrms.LeaveBalance{LeaveType: "annual", TotalDays: 15},
	)
	hrmsClient.AddEmployee(
		hrms.Employee{ID: "emp-bob", Name: "Bob"},
		hrms.LeaveBalance{LeaveType: "annual", TotalDays: 15},
	)
	registry, err := hrms.NewToolSet(hrmsClient)
	require.NoError(t, err)

	sessions := sessinmemory.NewService()
	require.NoError(t, sessions.Init(ctx, session.Context{
		SessionID:    "sess-alice",
		EmployeeID:   "emp-alice",
		EmployeeName: "Alice",
		CreatedAt:    time.Now(),
		TTL:          time.Hour,
	}))
	require.NoError(t, sessions.Init(ctx, session.Context{
		SessionID:    "sess-admin",
		EmployeeID:   "emp-admin",
		EmployeeName: "Root",
		Admin:        true,
		CreatedAt:    time.Now(),
		TTL:          time.Hour,
	}))

	saver := ckptinmemory.NewSaver()
	a, err := assistant.New(m, retr, registry, saver, sessions, opts...)
	require.NoError(t, err)
	return &fixture{assistant: a, hrms: hrmsClient, sessions: sessions, saver: saver}
}

func TestDirectAnswer(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		return answer("Hello Alice!")
	}}
	f := newFixture(t, m)

	result, err := f.assistant.Run(context.Background(), "sess-alice", "hi")
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, "Hello Alice!", result.Reply)
}

func TestRetrievalAnswer(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		switch call {
		case 1:
			return searchCall("annual leave days")
		case 2:
			return verdict(true)
		default:
			return answer("You get 15 annual leave days per year.")
		}
	}}
	f := newFixture(t, m)

	result, err := f.assistant.Run(context.Background(), "sess-alice", "how many leave days do I get?")
	require.NoError(t, err)
	assert.Equal(t, "You get 15 annual leave days per year.", result.Reply)
	assert.Equal(t, 3, m.calls)
}

func TestRewriteLoopIsBounded(t *testing.T) {
	rewrites := 0
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return searchCall("vague query")
		}
		if req.ForceJSON {
			return verdict(false)
		}
		rewrites++
		return answer("rewritten query " + fmt.Sprint(rewrites))
	}}
	f := newFixture(t, m)

	result, err := f.assistant.Run(context.Background(), "sess-alice", "something vague")
	require.NoError(t, err)
	// Two rewrites, then the degraded answer without another model call.
	assert.Equal(t, 2, rewrites)
	assert.Contains(t, result.Reply, "could not find reliable information")
}

func TestSensitiveToolApproval(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyForLeave, map[string]any{
				"leave_type": "annual",
				"start_date": "2026-09-07",
				"end_date":   "2026-09-08",
			})
		}
		return answer("Your leave request is filed.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	result, err := f.assistant.Run(ctx, "sess-alice", "book me two days off next week")
	require.NoError(t, err)
	require.True(t, result.Suspended())
	assert.Equal(t, "tool_approval", result.Pending.Action)
	assert.Equal(t, 0, f.hrms.LeaveCount())

	result, err = f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{
		Action:            workflow.ActionApprove,
		CheckpointVersion: result.Version,
	})
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, "Your leave request is filed.", result.Reply)
	assert.Equal(t, 1, f.hrms.LeaveCount())

	// Replaying the approval must not file a second request.
	_, err = f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{Action: workflow.ActionApprove})
	assert.ErrorIs(t, err, workflow.ErrStaleCheckpoint)
	assert.Equal(t, 1, f.hrms.LeaveCount())
}

func TestSensitiveToolRejection(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyForLeave, map[string]any{
				"leave_type": "annual",
				"start_date": "2026-09-07",
				"end_date":   "2026-09-08",
			})
		}
		return answer("Understood, I will not file it.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	_, err := f.assistant.Run(ctx, "sess-alice", "book me two days off")
	require.NoError(t, err)

	result, err := f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{Action: workflow.ActionReject})
	require.NoError(t, err)
	assert.Equal(t, "Understood, I will not file it.", result.Reply)
	assert.Equal(t, 0, f.hrms.LeaveCount())
}

func TestApprovedEditOverridesArguments(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyForLeave, map[string]any{
				"leave_type": "annual",
				"start_date": "2026-09-07",
				"end_date":   "2026-09-11",
			})
		}
		return answer("Filed with the corrected dates.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	_, err := f.assistant.Run(ctx, "sess-alice", "book next week off")
	require.NoError(t, err)

	result, err := f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{
		Action:    workflow.ActionEdit,
		Overrides: map[string]any{"end_date": "2026-09-08"},
	})
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	require.Equal(t, 1, f.hrms.LeaveCount())

	balances, err := f.hrms.GetLeaveBalance(ctx, "emp-alice")
	require.NoError(t, err)
	assert.Equal(t, 13.0, balances[0].RemainingDays)
}

func TestAdminToolTwoStepApproval(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyLeaveFor, map[string]any{
				"employee_id": "emp-bob",
				"leave_type":  "annual",
				"start_date":  "2026-09-07",
				"end_date":    "2026-09-08",
			})
		}
		return answer("Leave filed for Bob.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	result, err := f.assistant.Run(ctx, "sess-admin", "file leave for bob")
	require.NoError(t, err)
	require.True(t, result.Suspended())
	assert.Equal(t, 1, result.Pending.Step)
	assert.Equal(t, 2, result.Pending.TotalSteps)

	result, err = f.assistant.Resume(ctx, "sess-admin", workflow.ResumeDecision{Action: workflow.ActionApprove})
	require.NoError(t, err)
	require.True(t, result.Suspended())
	assert.Equal(t, 2, result.Pending.Step)
	assert.Equal(t, 0, f.hrms.LeaveCount())

	result, err = f.assistant.Resume(ctx, "sess-admin", workflow.ResumeDecision{Action: workflow.ActionApprove})
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, 1, f.hrms.LeaveCount())
}

func TestAdminToolRejectedAtSecondStep(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyLeaveFor, map[string]any{
				"employee_id": "emp-bob",
				"leave_type":  "annual",
				"start_date":  "2026-09-07",
				"end_date":    "2026-09-08",
			})
		}
		return answer("Canceled.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	_, err := f.assistant.Run(ctx, "sess-admin", "file leave for bob")
	require.NoError(t, err)
	_, err = f.assistant.Resume(ctx, "sess-admin", workflow.ResumeDecision{Action: workflow.ActionApprove})
	require.NoError(t, err)

	result, err := f.assistant.Resume(ctx, "sess-admin", workflow.ResumeDecision{Action: workflow.ActionReject})
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, 0, f.hrms.LeaveCount())
}

func TestAbandonedApprovalIsCanceled(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyForLeave, map[string]any{
				"leave_type": "annual",
				"start_date": "2026-09-07",
				"end_date":   "2026-09-08",
			})
		}
		return answer("Answering the new question instead.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	result, err := f.assistant.Run(ctx, "sess-alice", "book me two days off")
	require.NoError(t, err)
	require.True(t, result.Suspended())

	// The user moves on without deciding; the pending request is dropped
	// and the tool never runs.
	result, err = f.assistant.Run(ctx, "sess-alice", "actually, what is the leave policy?")
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, 0, f.hrms.LeaveCount())

	_, err = f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{Action: workflow.ActionApprove})
	assert.ErrorIs(t, err, workflow.ErrStaleCheckpoint)
	assert.Equal(t, 0, f.hrms.LeaveCount())
}

func TestNonAdminCannotActOnOthers(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		if call == 1 {
			return toolCall("call-1", hrms.ToolApplyLeaveFor, map[string]any{
				"employee_id": "emp-bob",
				"leave_type":  "annual",
				"start_date":  "2026-09-07",
				"end_date":    "2026-09-08",
			})
		}
		return answer("That needs admin rights.")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	result, err := f.assistant.Run(ctx, "sess-alice", "file leave for bob")
	require.NoError(t, err)
	require.True(t, result.Suspended())

	// Even with both approvals the tool refuses a non-admin caller.
	result, err = f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{Action: workflow.ActionApprove})
	require.NoError(t, err)
	require.True(t, result.Suspended())
	result, err = f.assistant.Resume(ctx, "sess-alice", workflow.ResumeDecision{Action: workflow.ActionApprove})
	require.NoError(t, err)
	assert.False(t, result.Suspended())
	assert.Equal(t, 0, f.hrms.LeaveCount())
}

func TestExpiredSessionRejected(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		return answer("should not be reached")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	require.NoError(t, f.sessions.Init(ctx, session.Context{
		SessionID:  "sess-old",
		EmployeeID: "emp-alice",
		CreatedAt:  time.Now().Add(-2 * time.Hour),
		TTL:        time.Hour,
	}))

	_, err := f.assistant.Run(ctx, "sess-old", "hello")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Zero(t, m.calls)
}

func TestWipeThread(t *testing.T) {
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		return answer("ok")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	_, err := f.assistant.Run(ctx, "sess-alice", "hello")
	require.NoError(t, err)
	require.NoError(t, f.assistant.WipeThread(ctx, "sess-alice"))

	_, err = f.saver.Latest(ctx, "sess-alice")
	assert.ErrorIs(t, err, workflow.ErrThreadNotFound)
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	// Each session's turn must act on its own employee even when turns run
	// concurrently.
	m := &scriptedModel{script: func(call int, req *model.Request) *model.Response {
		return answer("done")
	}}
	f := newFixture(t, m)
	ctx := context.Background()

	const sessions = 100
	for i := 0; i < sessions; i++ {
		sid := fmt.Sprintf("sess-%d", i)
		eid := fmt.Sprintf("emp-%d", i)
		require.NoError(t, f.sessions.Init(ctx, session.Context{
			SessionID: sid, EmployeeID: eid, CreatedAt: time.Now(), TTL: time.Hour,
		}))
	}

	var wg sync.WaitGroup
	errs := make(chan error, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.assistant.Run(ctx, fmt.Sprintf("sess-%d", i), "hello")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	// Every thread kept its own history: one user and one assistant message.
	for i := 0; i < sessions; i++ {
		ckpt, err := f.saver.Latest(ctx, fmt.Sprintf("sess-%d", i))
		require.NoError(t, err)
		var messages []model.Message
		require.NoError(t, json.Unmarshal(ckpt.State["messages"], &messages))
		require.Len(t, messages, 2)
		assert.Equal(t, model.RoleUser, messages[0].Role)
		assert.Equal(t, "hello", messages[0].Content)
	}
}
