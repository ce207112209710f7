//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package assistant wires the conversational HR assistant: a retrieval
// augmented answer loop with an approval gate in front of sensitive HRMS
// tools, persisted per session through the workflow checkpoint layer.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/insighthr/hragent/knowledge/retriever"
	"github.com/insighthr/hragent/log"
	"github.com/insighthr/hragent/model"
	"github.com/insighthr/hragent/session"
	"github.com/insighthr/hragent/session/identity"
	"github.com/insighthr/hragent/tool"
	"github.com/insighthr/hragent/workflow"
)

const defaultMaxRewrites = 2

// Option configures the assistant.
type Option func(*Assistant)

// WithMaxRewrites bounds how often a turn may rewrite its search query
// before answering with whatever was found.
func WithMaxRewrites(n int) Option {
	return func(a *Assistant) {
		if n >= 0 {
			a.maxRewrites = n
		}
	}
}

// WithMaxSteps bounds node transitions per turn.
func WithMaxSteps(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithPromptsYAML replaces the embedded prompt templates with the given
// YAML document. It must define every prompt the embedded file does.
func WithPromptsYAML(source []byte) Option {
	return func(a *Assistant) {
		a.promptsYAML = source
	}
}

// TurnResult is the outcome of one Run or Resume call.
type TurnResult struct {
	// Reply is the assistant's answer when the turn completed.
	Reply string
	// Pending is the outstanding approval request when the turn suspended.
	Pending *workflow.InterruptRequest
	// Version is the checkpoint version a resume decision should target.
	Version int64
}

// Suspended reports whether the turn is waiting for a human decision.
func (r *TurnResult) Suspended() bool {
	return r.Pending != nil
}

// Assistant answers HR questions and files HR requests on behalf of the
// employee bound to the session.
type Assistant struct {
	model       model.Model
	retriever   *retriever.Retriever
	registry    *tool.Registry
	sessions    session.Service
	prompts     *prompts
	executor    *workflow.Executor
	maxRewrites int
	maxSteps    int
	promptsYAML []byte
}

// New creates an assistant over the given model, retriever, tool registry,
// checkpoint saver, and session service.
func New(m model.Model, retr *retriever.Retriever, registry *tool.Registry,
	saver workflow.Saver, sessions session.Service, opts ...Option) (*Assistant, error) {
	if m == nil {
		return nil, errors.New("assistant requires a model")
	}
	if retr == nil {
		return nil, errors.New("assistant requires a retriever")
	}
	if registry == nil {
		return nil, errors.New("assistant requires a tool registry")
	}
	if saver == nil {
		return nil, errors.New("assistant requires a checkpoint saver")
	}
	if sessions == nil {
		return nil, errors.New("assistant requires a session service")
	}
	a := &Assistant{
		model:       m,
		retriever:   retr,
		registry:    registry,
		sessions:    sessions,
		maxRewrites: defaultMaxRewrites,
	}
	for _, opt := range opts {
		opt(a)
	}
	p, err := loadPrompts(a.promptsYAML)
	if err != nil {
		return nil, err
	}
	a.prompts = p
	graph, err := a.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	execOpts := []workflow.Option{
		workflow.WithAbandonedInterruptHandler(cancelAbandonedToolCalls),
	}
	if a.maxSteps > 0 {
		execOpts = append(execOpts, workflow.WithMaxSteps(a.maxSteps))
	}
	a.executor, err = workflow.New(graph, saver, execOpts...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Run executes one conversation turn for the session. The turn either
// completes with a reply or suspends with a pending approval request.
func (a *Assistant) Run(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	ctx, err := a.bindIdentity(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := a.executor.Run(ctx, sessionID, workflow.State{
		stateKeyMessages: []model.Message{model.NewUserMessage(message)},
		stateKeyQuestion: message,
		stateKeyReply:    "",
	})
	if err != nil {
		return nil, err
	}
	return turnResult(result), nil
}

// Resume continues a suspended turn with a human decision on the pending
// approval request.
func (a *Assistant) Resume(ctx context.Context, sessionID string, decision workflow.ResumeDecision) (*TurnResult, error) {
	ctx, err := a.bindIdentity(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result, err := a.executor.Resume(ctx, sessionID, decision)
	if err != nil {
		return nil, err
	}
	return turnResult(result), nil
}

// WipeThread erases the session's conversation state.
func (a *Assistant) WipeThread(ctx context.Context, sessionID string) error {
	return a.executor.DeleteThread(ctx, sessionID)
}

// bindIdentity resolves the session and binds its employee identity to the
// context for the duration of the turn.
func (a *Assistant) bindIdentity(ctx context.Context, sessionID string) (context.Context, error) {
	sc, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return identity.NewContext(ctx, identity.Identity{
		EmployeeID:   sc.EmployeeID,
		EmployeeName: sc.EmployeeName,
		Admin:        sc.Admin,
	}), nil
}

func turnResult(result *workflow.Result) *TurnResult {
	tr := &TurnResult{Version: result.Version}
	if result.Type == workflow.ResultInterrupted {
		tr.Pending = result.Interrupt
		return tr
	}
	tr.Reply, _ = result.FinalState[stateKeyReply].(string)
	return tr
}

// cancelAbandonedToolCalls closes out the tool calls of a suspended turn
// that the user walked away from, so the conversation history stays
// well-formed for the next turn.
func cancelAbandonedToolCalls(_ context.Context, state workflow.State, pending *workflow.InterruptState) workflow.State {
	calls := pendingToolCalls(stateMessages(state))
	if len(calls) == 0 {
		return nil
	}
	log.Infof("canceling %d abandoned tool calls at node %s", len(calls), pending.NodeID)
	canceled := make([]model.Message, 0, len(calls))
	for _, call := range calls {
		canceled = append(canceled, model.NewToolMessage(call.ID, call.Function.Name,
			"request canceled: superseded by a new message"))
	}
	return workflow.State{stateKeyMessages: canceled}
}
