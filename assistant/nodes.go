//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/insighthr/hragent/knowledge/retriever"
	"github.com/insighthr/hragent/log"
	"github.com/insighthr/hragent/model"
	"github.com/insighthr/hragent/session/identity"
	"github.com/insighthr/hragent/tool"
	"github.com/insighthr/hragent/tool/function"
	"github.com/insighthr/hragent/workflow"
)

// toolSearchKnowledgeBase is the retrieval intent the model signals by
// calling it. It is never executed as a tool; the decide node routes the
// turn into the retrieval loop instead.
const toolSearchKnowledgeBase = "search_knowledge_base"

type searchInput struct {
	Query string `json:"query" description:"The question to search the HR knowledge base for."`
}

func newSearchTool() tool.Tool {
	return function.New(
		func(_ context.Context, _ searchInput) (struct{}, error) {
			return struct{}{}, nil
		},
		function.WithName(toolSearchKnowledgeBase),
		function.WithDescription("Search the HR knowledge base for policy and employee record information."),
	)
}

func stateMessages(state workflow.State) []model.Message {
	messages, _ := state[stateKeyMessages].([]model.Message)
	return messages
}

// decideNode asks the model what the turn needs: a direct answer, a
// knowledge base search, or HRMS tool calls.
func (a *Assistant) decideNode(ctx context.Context, state workflow.State) (any, error) {
	request := &model.Request{
		Messages: append([]model.Message{model.NewSystemMessage(a.prompts.System)},
			stateMessages(state)...),
		Tools: a.boundTools(),
	}
	response, err := a.model.GenerateContent(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	message := response.Message

	if len(message.ToolCalls) == 0 {
		return &workflow.Command{
			Update: workflow.State{
				stateKeyMessages: []model.Message{message},
				stateKeyReply:    message.Content,
			},
			GoTo: workflow.End,
		}, nil
	}

	if query, ok := searchQuery(message.ToolCalls); ok {
		return &workflow.Command{
			Update: workflow.State{
				stateKeyQuestion:        query,
				stateKeySearchQuery:     query,
				stateKeyAttempts:        0,
				stateKeyRetrievalFailed: false,
				stateKeyRelevant:        false,
			},
			GoTo: nodeRetrieve,
		}, nil
	}

	// The assistant message with its tool calls must be in the history
	// before the gate appends the tool results.
	return &workflow.Command{
		Update: workflow.State{stateKeyMessages: []model.Message{message}},
		GoTo:   nodeToolGate,
	}, nil
}

func (a *Assistant) boundTools() map[string]tool.Tool {
	tools := a.registry.Tools()
	tools[toolSearchKnowledgeBase] = newSearchTool()
	return tools
}

// searchQuery extracts the knowledge base query when the model's first tool
// call is a search.
func searchQuery(calls []model.ToolCall) (string, bool) {
	if len(calls) == 0 || calls[0].Function.Name != toolSearchKnowledgeBase {
		return "", false
	}
	var in searchInput
	if err := json.Unmarshal(calls[0].Function.Arguments, &in); err != nil || in.Query == "" {
		return "", false
	}
	return in.Query, true
}

// retrieveNode queries the knowledge base scoped to the calling employee.
// A retrieval failure degrades the answer instead of failing the turn.
func (a *Assistant) retrieveNode(ctx context.Context, state workflow.State) (any, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, identity.ErrNoIdentity
	}
	query, _ := state[stateKeySearchQuery].(string)
	chunks, err := a.retriever.Retrieve(ctx, query, caller.EmployeeID)
	if err != nil {
		log.Warnf("retrieval failed for employee %s: %v", caller.EmployeeID, err)
		return workflow.State{
			stateKeyChunks:          []retriever.RetrievedChunk{},
			stateKeyRetrievalFailed: true,
		}, nil
	}
	return workflow.State{
		stateKeyChunks:          chunks,
		stateKeyRetrievalFailed: false,
	}, nil
}

// gradeNode asks the model whether the retrieved chunks answer the
// question. A grader failure counts as relevant, so the turn answers with
// what it has instead of looping.
func (a *Assistant) gradeNode(ctx context.Context, state workflow.State) (any, error) {
	failed, _ := state[stateKeyRetrievalFailed].(bool)
	chunks, _ := state[stateKeyChunks].([]retriever.RetrievedChunk)
	if failed || len(chunks) == 0 {
		return workflow.State{stateKeyRelevant: false}, nil
	}
	question, _ := state[stateKeyQuestion].(string)
	prompt := render(a.prompts.Grade, map[string]string{
		"question":  question,
		"documents": chunkText(chunks),
	})
	response, err := a.model.GenerateContent(ctx, &model.Request{
		Messages:  []model.Message{model.NewUserMessage(prompt)},
		ForceJSON: true,
	})
	if err != nil {
		log.Warnf("grader unavailable, keeping retrieved chunks: %v", err)
		return workflow.State{stateKeyRelevant: true}, nil
	}
	var verdict struct {
		Relevant bool `json:"relevant"`
	}
	if err := json.Unmarshal([]byte(response.Message.Content), &verdict); err != nil {
		log.Warnf("grader returned malformed verdict, keeping retrieved chunks: %v", err)
		return workflow.State{stateKeyRelevant: true}, nil
	}
	return workflow.State{stateKeyRelevant: verdict.Relevant}, nil
}

// rewriteNode reformulates the search query and spends one rewrite attempt.
func (a *Assistant) rewriteNode(ctx context.Context, state workflow.State) (any, error) {
	question, _ := state[stateKeyQuestion].(string)
	attempts, _ := state[stateKeyAttempts].(int)
	prompt := render(a.prompts.Rewrite, map[string]string{"question": question})
	response, err := a.model.GenerateContent(ctx, &model.Request{
		Messages: []model.Message{model.NewUserMessage(prompt)},
	})
	update := workflow.State{stateKeyAttempts: attempts + 1}
	if err != nil {
		log.Warnf("rewrite failed, retrying with the original question: %v", err)
		return update, nil
	}
	if rewritten := strings.TrimSpace(response.Message.Content); rewritten != "" {
		update[stateKeySearchQuery] = rewritten
	}
	return update, nil
}

// generateNode produces the turn's answer from the retrieved chunks, or the
// degraded fallback when nothing usable was found.
func (a *Assistant) generateNode(ctx context.Context, state workflow.State) (any, error) {
	relevant, _ := state[stateKeyRelevant].(bool)
	chunks, _ := state[stateKeyChunks].([]retriever.RetrievedChunk)
	if !relevant || len(chunks) == 0 {
		reply := strings.TrimSpace(a.prompts.Degraded)
		return workflow.State{
			stateKeyMessages: []model.Message{model.NewAssistantMessage(reply)},
			stateKeyReply:    reply,
		}, nil
	}
	question, _ := state[stateKeyQuestion].(string)
	prompt := render(a.prompts.Generate, map[string]string{
		"question":  question,
		"documents": chunkText(chunks),
	})
	response, err := a.model.GenerateContent(ctx, &model.Request{
		Messages: []model.Message{model.NewUserMessage(prompt)},
	})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return workflow.State{
		stateKeyMessages: []model.Message{response.Message},
		stateKeyReply:    response.Message.Content,
	}, nil
}

func chunkText(chunks []retriever.RetrievedChunk) string {
	var b strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Text)
	}
	return b.String()
}

// toolGateNode dispatches the tool calls proposed by the last assistant
// message. Approvals for every sensitive call are collected before anything
// executes, so a suspension in the approval phase never repeats a side
// effect on resume.
func (a *Assistant) toolGateNode(ctx context.Context, state workflow.State) (any, error) {
	calls := pendingToolCalls(stateMessages(state))
	if len(calls) == 0 {
		return nil, nil
	}

	type plan struct {
		call     model.ToolCall
		args     []byte
		approved bool
		skipMsg  string
	}
	plans := make([]*plan, 0, len(calls))
	for _, call := range calls {
		p := &plan{call: call, args: call.Function.Arguments, approved: true}
		if err := a.registry.Validate(call.Function.Name, call.Function.Arguments); err != nil {
			p.approved = false
			p.skipMsg = fmt.Sprintf("tool error: %v", err)
			plans = append(plans, p)
			continue
		}
		if a.registry.IsSensitive(call.Function.Name) {
			args, approved, err := a.collectApprovals(state, call)
			if err != nil {
				return nil, err
			}
			p.args = args
			p.approved = approved
			if !approved {
				p.skipMsg = "request canceled by the user"
			}
		}
		plans = append(plans, p)
	}

	results := make([]model.Message, 0, len(plans))
	for _, p := range plans {
		name := p.call.Function.Name
		if !p.approved {
			results = append(results, model.NewToolMessage(p.call.ID, name, p.skipMsg))
			continue
		}
		out, err := a.registry.Call(ctx, name, p.args)
		if err != nil {
			// Tool failures become tool results so the model can explain
			// them; they do not abort the turn.
			results = append(results, model.NewToolMessage(p.call.ID, name,
				fmt.Sprintf("tool error: %v", err)))
			continue
		}
		content, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("marshal result of tool %s: %w", name, err)
		}
		results = append(results, model.NewToolMessage(p.call.ID, name, string(content)))
	}
	return workflow.State{stateKeyMessages: results}, nil
}

// collectApprovals walks the tool's approval steps, suspending at each one
// that has no stored decision yet. It returns the final arguments, with any
// approved edits applied, and whether the call may execute.
func (a *Assistant) collectApprovals(state workflow.State, call model.ToolCall) ([]byte, bool, error) {
	name := call.Function.Name
	args := call.Function.Arguments
	steps := a.registry.ApprovalSteps(name)
	for step := 1; step <= steps; step++ {
		details := map[string]any{"tool": name, "tool_call_id": call.ID}
		var parsed map[string]any
		if len(args) > 0 && json.Unmarshal(args, &parsed) == nil {
			details["arguments"] = parsed
		}
		editable := make([]string, 0, len(parsed))
		for field := range parsed {
			editable = append(editable, field)
		}
		decision, err := workflow.Interrupt(state,
			fmt.Sprintf("%s:step%d", call.ID, step),
			&workflow.InterruptRequest{
				Action:         "tool_approval",
				Message:        fmt.Sprintf("Approve %s? (step %d of %d)", name, step, steps),
				Details:        details,
				EditableFields: editable,
				Options:        []string{workflow.ActionApprove, workflow.ActionReject, workflow.ActionEdit},
				Step:           step,
				TotalSteps:     steps,
			})
		if err != nil {
			return nil, false, err
		}
		if !decision.Approved() {
			return args, false, nil
		}
		if decision.Action == workflow.ActionEdit && len(decision.Overrides) > 0 {
			edited, err := applyOverrides(args, decision.Overrides)
			if err != nil {
				return nil, false, fmt.Errorf("apply edits to tool %s: %w", name, err)
			}
			args = edited
		}
	}
	return args, true, nil
}

func applyOverrides(args []byte, overrides map[string]any) ([]byte, error) {
	parsed := make(map[string]any)
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, err
		}
	}
	for field, value := range overrides {
		parsed[field] = value
	}
	return json.Marshal(parsed)
}

// pendingToolCalls returns the tool calls of the trailing assistant message
// that have no tool result yet.
func pendingToolCalls(messages []model.Message) []model.ToolCall {
	answered := make(map[string]bool)
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == model.RoleTool {
			answered[msg.ToolID] = true
			continue
		}
		if msg.Role == model.RoleAssistant {
			var pending []model.ToolCall
			for _, call := range msg.ToolCalls {
				if !answered[call.ID] {
					pending = append(pending, call)
				}
			}
			return pending
		}
		break
	}
	return nil
}
