//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// State represents the state that flows through the graph.
// This is the shared data structure that flows between nodes.
type State map[string]any

// Clone creates a shallow copy of the state.
func (s State) Clone() State {
	clone := make(State, len(s))
	for k, v := range s {
		clone[k] = v
	}
	return clone
}

// StateReducer determines how a state update is merged into the existing
// value for a field.
type StateReducer func(existing, update any) any

// UnmarshalFunc restores a typed field value from its persisted JSON form.
type UnmarshalFunc func(data []byte) (any, error)

// StateField defines a field in the state schema. Only declared fields are
// persisted by the checkpoint layer; anything else in the state map is
// treated as execution-scoped and dropped on save.
type StateField struct {
	Type      reflect.Type
	Reducer   StateReducer
	Default   func() any
	Unmarshal UnmarshalFunc
}

// StateSchema defines the structure and persistence behavior of graph state.
type StateSchema struct {
	mu     sync.RWMutex
	Fields map[string]StateField
}

// NewStateSchema creates a new state schema.
func NewStateSchema() *StateSchema {
	return &StateSchema{Fields: make(map[string]StateField)}
}

// AddField adds a field to the state schema.
func (s *StateSchema) AddField(name string, field StateField) *StateSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	if field.Reducer == nil {
		field.Reducer = DefaultReducer
	}
	if field.Unmarshal == nil {
		field.Unmarshal = func(data []byte) (any, error) {
			var v any
			err := json.Unmarshal(data, &v)
			return v, err
		}
	}
	s.Fields[name] = field
	return s
}

// InitialState builds a state populated with every field default.
func (s *StateSchema) InitialState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := make(State, len(s.Fields))
	for name, field := range s.Fields {
		if field.Default != nil {
			state[name] = field.Default()
		}
	}
	return state
}

// ApplyUpdate applies a state update using the defined reducers.
func (s *StateSchema) ApplyUpdate(currentState State, update State) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := currentState.Clone()
	for key, updateValue := range update {
		field, exists := s.Fields[key]
		if !exists {
			// Undeclared fields override.
			result[key] = updateValue
			continue
		}
		currentValue, hasCurrentValue := result[key]
		if !hasCurrentValue && field.Default != nil {
			currentValue = field.Default()
		}
		result[key] = field.Reducer(currentValue, updateValue)
	}
	return result
}

// Marshal serializes the schema-declared fields of a state to JSON.
func (s *StateSchema) Marshal(state State) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.Fields))
	for name := range s.Fields {
		value, ok := state[name]
		if !ok {
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal state field %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// Unmarshal restores a state from its persisted form, using the per-field
// unmarshal hooks so typed values survive a round trip through storage.
func (s *StateSchema) Unmarshal(raw map[string]json.RawMessage) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := make(State, len(raw))
	for name, data := range raw {
		field, exists := s.Fields[name]
		if !exists {
			var v any
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, fmt.Errorf("unmarshal state field %s: %w", name, err)
			}
			state[name] = v
			continue
		}
		v, err := field.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal state field %s: %w", name, err)
		}
		state[name] = v
	}
	return state, nil
}

// UnmarshalTyped returns an UnmarshalFunc that decodes into T.
func UnmarshalTyped[T any]() UnmarshalFunc {
	return func(data []byte) (any, error) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Common reducer functions.

// DefaultReducer overwrites the existing value with the update.
func DefaultReducer(existing, update any) any {
	return update
}

// AppendReducer appends update to the existing slice.
func AppendReducer[T any](existing, update any) any {
	if existing == nil {
		existing = []T{}
	}
	existingSlice, ok1 := existing.([]T)
	updateSlice, ok2 := update.([]T)
	if !ok1 || !ok2 {
		return update
	}
	return append(existingSlice, updateSlice...)
}
