//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package function

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addInput struct {
	A int `json:"a" description:"First operand."`
	B int `json:"b"`
	C int `json:"c,omitempty"`
}

type addOutput struct {
	Sum int `json:"sum"`
}

func newAddTool() *Tool[addInput, addOutput] {
	return New(
		func(_ context.Context, in addInput) (addOutput, error) {
			return addOutput{Sum: in.A + in.B + in.C}, nil
		},
		WithName("add"),
		WithDescription("Adds numbers."),
	)
}

func TestDeclaration(t *testing.T) {
	decl := newAddTool().Declaration()
	assert.Equal(t, "add", decl.Name)
	assert.Equal(t, "Adds numbers.", decl.Description)
	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, "object", decl.InputSchema.Type)
	assert.Equal(t, "First operand.", decl.InputSchema.Properties["a"].Description)
	assert.ElementsMatch(t, []string{"a", "b"}, decl.InputSchema.Required)
}

func TestCall(t *testing.T) {
	out, err := newAddTool().Call(context.Background(), []byte(`{"a": 2, "b": 3, "c": 4}`))
	require.NoError(t, err)
	assert.Equal(t, addOutput{Sum: 9}, out)
}

func TestCallEmptyArgs(t *testing.T) {
	out, err := newAddTool().Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, addOutput{Sum: 0}, out)
}

func TestCallMalformedArgs(t *testing.T) {
	_, err := newAddTool().Call(context.Background(), []byte(`{"a": "not a number"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal arguments")
}
