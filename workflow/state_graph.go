//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import "fmt"

// StateGraph provides a fluent builder for constructing graphs.
// Errors are accumulated and reported by Compile.
type StateGraph struct {
	graph *Graph
	errs  []error
}

// NewStateGraph creates a new state graph builder with the given schema.
func NewStateGraph(schema *StateSchema) *StateGraph {
	return &StateGraph{graph: newGraph(schema)}
}

// AddNode adds a node to the graph.
func (sg *StateGraph) AddNode(id string, fn NodeFunc) *StateGraph {
	if err := sg.graph.addNode(&Node{ID: id, Name: id, Function: fn}); err != nil {
		sg.errs = append(sg.errs, err)
	}
	return sg
}

// AddEdge adds an unconditional edge between two nodes.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	if err := sg.graph.addEdge(&Edge{From: from, To: to}); err != nil {
		sg.errs = append(sg.errs, err)
	}
	return sg
}

// AddConditionalEdges adds a conditional edge whose condition result is
// mapped to a target node through pathMap.
func (sg *StateGraph) AddConditionalEdges(from string, condition ConditionalFunc, pathMap map[string]string) *StateGraph {
	if err := sg.graph.addConditionalEdge(&ConditionalEdge{
		From:      from,
		Condition: condition,
		PathMap:   pathMap,
	}); err != nil {
		sg.errs = append(sg.errs, err)
	}
	return sg
}

// SetEntryPoint sets the node executed first on every run.
func (sg *StateGraph) SetEntryPoint(nodeID string) *StateGraph {
	if err := sg.graph.setEntryPoint(nodeID); err != nil {
		sg.errs = append(sg.errs, err)
	}
	return sg
}

// Compile validates the graph and returns the immutable runtime structure.
func (sg *StateGraph) Compile() (*Graph, error) {
	if len(sg.errs) > 0 {
		return nil, fmt.Errorf("graph build failed: %w", sg.errs[0])
	}
	if err := sg.graph.validate(); err != nil {
		return nil, err
	}
	return sg.graph, nil
}
