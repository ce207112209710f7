//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package function provides a generic way to wrap any Go function as a
// callable tool with a reflected input schema.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	itool "github.com/insighthr/hragent/internal/tool"
	"github.com/insighthr/hragent/tool"
)

// Tool implements tool.CallableTool for a typed function. The input type's
// json tags become the argument schema presented to the model.
type Tool[I, O any] struct {
	name        string
	description string
	inputSchema *tool.Schema
	fn          func(context.Context, I) (O, error)
}

// Option configures a function tool.
type Option func(*options)

type options struct {
	name        string
	description string
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(o *options) { o.description = description }
}

// New creates a callable tool from the given function.
func New[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *Tool[I, O] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var emptyI I
	return &Tool[I, O]{
		name:        o.name,
		description: o.description,
		inputSchema: itool.GenerateJSONSchema(reflect.TypeOf(emptyI)),
		fn:          fn,
	}
}

// Call unmarshals the json arguments into the input type and invokes the
// wrapped function.
func (t *Tool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("tool %s: unmarshal arguments: %w", t.name, err)
		}
	}
	return t.fn(ctx, input)
}

// Declaration returns the tool's declaration information.
func (t *Tool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
	}
}
