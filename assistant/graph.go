//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package assistant

import (
	"context"

	"github.com/insighthr/hragent/knowledge/retriever"
	"github.com/insighthr/hragent/model"
	"github.com/insighthr/hragent/workflow"
)

// State field names.
const (
	stateKeyMessages        = "messages"
	stateKeyQuestion        = "question"
	stateKeySearchQuery     = "search_query"
	stateKeyChunks          = "chunks"
	stateKeyAttempts        = "attempts"
	stateKeyRetrievalFailed = "retrieval_failed"
	stateKeyRelevant        = "relevant"
	stateKeyReply           = "reply"
)

// Node names.
const (
	nodeDecide   = "decide"
	nodeRetrieve = "retrieve"
	nodeGrade    = "grade"
	nodeRewrite  = "rewrite"
	nodeGenerate = "generate"
	nodeToolGate = "tool_gate"
)

// Routing results for the decide node.
const (
	routeAnswer   = "answer"
	routeRetrieve = "retrieve"
	routeTools    = "tools"
)

func newSchema() *workflow.StateSchema {
	schema := workflow.NewStateSchema()
	schema.AddField(stateKeyMessages, workflow.StateField{
		Reducer:   workflow.AppendReducer[model.Message],
		Default:   func() any { return []model.Message{} },
		Unmarshal: workflow.UnmarshalTyped[[]model.Message](),
	})
	schema.AddField(stateKeyQuestion, workflow.StateField{
		Default:   func() any { return "" },
		Unmarshal: workflow.UnmarshalTyped[string](),
	})
	schema.AddField(stateKeySearchQuery, workflow.StateField{
		Default:   func() any { return "" },
		Unmarshal: workflow.UnmarshalTyped[string](),
	})
	schema.AddField(stateKeyChunks, workflow.StateField{
		Default:   func() any { return []retriever.RetrievedChunk{} },
		Unmarshal: workflow.UnmarshalTyped[[]retriever.RetrievedChunk](),
	})
	schema.AddField(stateKeyAttempts, workflow.StateField{
		Default:   func() any { return 0 },
		Unmarshal: workflow.UnmarshalTyped[int](),
	})
	schema.AddField(stateKeyRetrievalFailed, workflow.StateField{
		Default:   func() any { return false },
		Unmarshal: workflow.UnmarshalTyped[bool](),
	})
	schema.AddField(stateKeyRelevant, workflow.StateField{
		Default:   func() any { return false },
		Unmarshal: workflow.UnmarshalTyped[bool](),
	})
	schema.AddField(stateKeyReply, workflow.StateField{
		Default:   func() any { return "" },
		Unmarshal: workflow.UnmarshalTyped[string](),
	})
	return schema
}

// buildGraph wires the turn state machine: decide either answers directly,
// enters the retrieval loop, or dispatches tool calls through the approval
// gate. The retrieval loop is bounded by the rewrite budget.
func (a *Assistant) buildGraph() (*workflow.Graph, error) {
	return workflow.NewStateGraph(newSchema()).
		AddNode(nodeDecide, a.decideNode).
		AddNode(nodeRetrieve, a.retrieveNode).
		AddNode(nodeGrade, a.gradeNode).
		AddNode(nodeRewrite, a.rewriteNode).
		AddNode(nodeGenerate, a.generateNode).
		AddNode(nodeToolGate, a.toolGateNode).
		AddEdge(nodeRetrieve, nodeGrade).
		AddConditionalEdges(nodeGrade, a.routeAfterGrade, map[string]string{
			nodeGenerate: nodeGenerate,
			nodeRewrite:  nodeRewrite,
		}).
		AddEdge(nodeRewrite, nodeRetrieve).
		AddEdge(nodeGenerate, workflow.End).
		AddEdge(nodeToolGate, nodeDecide).
		SetEntryPoint(nodeDecide).
		Compile()
}

// routeAfterGrade continues to answer generation when the retrieved chunks
// are usable or the rewrite budget is spent, and otherwise rewrites the
// query for another pass.
func (a *Assistant) routeAfterGrade(_ context.Context, state workflow.State) (string, error) {
	relevant, _ := state[stateKeyRelevant].(bool)
	failed, _ := state[stateKeyRetrievalFailed].(bool)
	attempts, _ := state[stateKeyAttempts].(int)
	if relevant || failed || attempts >= a.maxRewrites {
		return nodeGenerate, nil
	}
	return nodeRewrite, nil
}
