//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package model defines the message types and the text generation interface
// used by the workflow nodes.
package model

import (
	"context"

	"github.com/insighthr/hragent/tool"
)

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Message represents a single message in a conversation.
type Message struct {
	Role      Role       `json:"role"`                 // The role of the message author.
	Content   string     `json:"content"`              // The message content.
	ToolID    string     `json:"tool_id,omitempty"`    // Set on tool result messages.
	ToolName  string     `json:"tool_name,omitempty"`  // Set on tool result messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Tool calls proposed by the assistant.
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool result message for the given tool call.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{Role: RoleTool, ToolID: toolID, ToolName: toolName, Content: content}
}

// ToolCall represents a call to a tool proposed by the model.
type ToolCall struct {
	// ID is the tool call id returned by the model.
	ID string `json:"id,omitempty"`
	// Type of the tool. Currently only `function` is supported.
	Type string `json:"type"`
	// Function holds the called function and its arguments.
	Function FunctionCall `json:"function"`
}

// FunctionCall describes the function invoked by a tool call.
type FunctionCall struct {
	// Name is the registered tool name.
	Name string `json:"name"`
	// Arguments carries the json-encoded call arguments.
	Arguments []byte `json:"arguments,omitempty"`
}

// Request is the request to the model.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`
	// Temperature controls randomness. Nodes that need reproducible routing
	// leave it at zero.
	Temperature *float64 `json:"temperature,omitempty"`
	// ForceJSON asks the model to emit a single JSON object.
	ForceJSON bool `json:"force_json,omitempty"`
	// Tools the model may call, keyed by name. Not serialized.
	Tools map[string]tool.Tool `json:"-"`
}

// Usage reports token accounting for a generation call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the model output for a single generation call.
type Response struct {
	Message Message `json:"message"`
	Usage   *Usage  `json:"usage,omitempty"`
}

// Model is the interface implemented by text generation backends.
// Implementations must be safe for concurrent use and, with zero temperature,
// deterministic for identical requests.
type Model interface {
	// GenerateContent produces a single response for the request.
	GenerateContent(ctx context.Context, request *Request) (*Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a model.
type Info struct {
	Name string `json:"name"`
}
