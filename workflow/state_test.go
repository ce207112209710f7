//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUpdateReducers(t *testing.T) {
	schema := NewStateSchema()
	schema.AddField("items", StateField{Reducer: AppendReducer[string]})
	schema.AddField("name", StateField{})

	state := State{"items": []string{"a"}, "name": "old"}
	state = schema.ApplyUpdate(state, State{"items": []string{"b"}, "name": "new"})

	assert.Equal(t, []string{"a", "b"}, state["items"])
	assert.Equal(t, "new", state["name"])
}

func TestApplyUpdateUndeclaredField(t *testing.T) {
	schema := NewStateSchema()
	state := schema.ApplyUpdate(State{}, State{"scratch": 42})
	assert.Equal(t, 42, state["scratch"])
}

func TestMarshalOnlyDeclaredFields(t *testing.T) {
	schema := NewStateSchema()
	schema.AddField("kept", StateField{})

	raw, err := schema.Marshal(State{"kept": "yes", "dropped": "no"})
	require.NoError(t, err)
	assert.Contains(t, raw, "kept")
	assert.NotContains(t, raw, "dropped")
}

func TestUnmarshalTypedRoundTrip(t *testing.T) {
	type payload struct {
		N int      `json:"n"`
		S []string `json:"s"`
	}
	schema := NewStateSchema()
	schema.AddField("p", StateField{Unmarshal: UnmarshalTyped[payload]()})
	schema.AddField("count", StateField{Unmarshal: UnmarshalTyped[int]()})

	raw, err := schema.Marshal(State{
		"p":     payload{N: 7, S: []string{"x"}},
		"count": 3,
	})
	require.NoError(t, err)

	state, err := schema.Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, payload{N: 7, S: []string{"x"}}, state["p"])
	assert.Equal(t, 3, state["count"])
}

func TestInitialStateDefaults(t *testing.T) {
	schema := NewStateSchema()
	schema.AddField("n", StateField{Default: func() any { return 10 }})
	schema.AddField("nodefault", StateField{})

	state := schema.InitialState()
	assert.Equal(t, 10, state["n"])
	assert.NotContains(t, state, "nodefault")
}

func TestGraphValidation(t *testing.T) {
	noop := func(ctx context.Context, state State) (any, error) { return nil, nil }

	t.Run("missing entry point", func(t *testing.T) {
		_, err := NewStateGraph(nil).AddNode("a", noop).Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry point")
	})

	t.Run("duplicate node", func(t *testing.T) {
		_, err := NewStateGraph(nil).
			AddNode("a", noop).
			AddNode("a", noop).
			SetEntryPoint("a").
			Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("edge to unknown node", func(t *testing.T) {
		_, err := NewStateGraph(nil).
			AddNode("a", noop).
			AddEdge("a", "ghost").
			SetEntryPoint("a").
			Compile()
		require.Error(t, err)
	})

	t.Run("conditional target unknown", func(t *testing.T) {
		_, err := NewStateGraph(nil).
			AddNode("a", noop).
			AddConditionalEdges("a", func(ctx context.Context, state State) (string, error) {
				return "x", nil
			}, map[string]string{"x": "ghost"}).
			SetEntryPoint("a").
			Compile()
		require.Error(t, err)
	})

	t.Run("valid graph", func(t *testing.T) {
		g, err := NewStateGraph(nil).
			AddNode("a", noop).
			AddEdge("a", End).
			SetEntryPoint("a").
			Compile()
		require.NoError(t, err)
		assert.Equal(t, "a", g.EntryPoint())
	})
}
