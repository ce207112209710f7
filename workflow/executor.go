//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/insighthr/hragent/log"
	itrace "github.com/insighthr/hragent/telemetry/trace"
)

// stateKeyExecContext carries the execution context through the state map.
// It is not declared in any schema, so the checkpoint layer never persists it.
const stateKeyExecContext = "__exec_context__"

// defaultMaxSteps bounds node transitions per turn.
const defaultMaxSteps = 50

// ExecContext is the execution-scoped context a node can reach through its
// state. It holds the resume decisions available to the node currently
// re-executing after an interrupt.
type ExecContext struct {
	// ThreadID is the conversation thread being executed.
	ThreadID string
	resumed  map[string]ResumeDecision
}

// Result kinds.
const (
	// ResultCompleted means the turn ran to the end node.
	ResultCompleted = "completed"
	// ResultInterrupted means the turn suspended awaiting a human decision.
	ResultInterrupted = "interrupted"
)

// Result is the outcome of Run or Resume.
type Result struct {
	// Type is ResultCompleted or ResultInterrupted.
	Type string
	// FinalState is the state at the last checkpoint of this call.
	FinalState State
	// Interrupt is the pending request when Type is ResultInterrupted.
	Interrupt *InterruptRequest
	// Version is the checkpoint version this result corresponds to.
	Version int64
}

// AbandonedInterruptHandler amends thread state when a new turn starts on a
// thread that was left suspended. It returns a state update applied before
// the new input; a nil handler means the pending interrupt is silently
// discarded.
type AbandonedInterruptHandler func(ctx context.Context, state State, pending *InterruptState) State

// Option configures an Executor.
type Option func(*Executor)

// WithMaxSteps sets the maximum node transitions per turn.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithAbandonedInterruptHandler installs the handler invoked when Run finds
// a pending interrupt left over from a previous turn.
func WithAbandonedInterruptHandler(fn AbandonedInterruptHandler) Option {
	return func(e *Executor) {
		e.onAbandoned = fn
	}
}

// Executor runs a compiled graph against durable per-thread state. A
// checkpoint is written after every node transition, so a crashed process
// resumes from the last completed node. Executions on the same thread are
// serialized; distinct threads run concurrently.
type Executor struct {
	graph       *Graph
	saver       Saver
	maxSteps    int
	onAbandoned AbandonedInterruptHandler
	locks       sync.Map // threadID -> *sync.Mutex
}

// New creates an executor for the given graph and checkpoint saver.
func New(graph *Graph, saver Saver, opts ...Option) (*Executor, error) {
	if graph == nil {
		return nil, errors.New("executor requires a graph")
	}
	if saver == nil {
		return nil, errors.New("executor requires a checkpoint saver")
	}
	e := &Executor{
		graph:    graph,
		saver:    saver,
		maxSteps: defaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Executor) threadLock(threadID string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(threadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Run executes one turn for the thread. The update is merged into the
// thread's persisted state through the schema reducers before execution
// starts at the entry point. A thread left suspended by a previous turn has
// its pending interrupt discarded first, via the abandoned-interrupt handler
// when one is installed.
func (e *Executor) Run(ctx context.Context, threadID string, update State) (*Result, error) {
	if threadID == "" {
		return nil, errors.New("thread ID cannot be empty")
	}
	mu := e.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()

	state, err := e.loadState(ctx, threadID)
	if err != nil {
		return nil, err
	}
	state = e.graph.Schema().ApplyUpdate(state, update)

	if _, err := e.save(ctx, threadID, state, e.graph.EntryPoint(), CheckpointSourceInput, nil); err != nil {
		return nil, err
	}
	return e.execute(ctx, threadID, state, e.graph.EntryPoint(), nil)
}

// Resume continues a suspended thread with a human decision. The decision is
// validated against the outstanding request before any state is touched; the
// interrupted node is then re-executed with the decision available to it.
func (e *Executor) Resume(ctx context.Context, threadID string, decision ResumeDecision) (*Result, error) {
	if threadID == "" {
		return nil, errors.New("thread ID cannot be empty")
	}
	mu := e.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()

	ckpt, err := e.saver.Latest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if ckpt.Interrupt == nil {
		return nil, fmt.Errorf("%w: thread %s has no pending interrupt", ErrStaleCheckpoint, threadID)
	}
	if decision.CheckpointVersion != 0 && decision.CheckpointVersion != ckpt.Version {
		return nil, fmt.Errorf("%w: decision targets version %d, thread is at %d",
			ErrStaleCheckpoint, decision.CheckpointVersion, ckpt.Version)
	}
	if !ckpt.Interrupt.Request.Allows(decision.Action) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResumeAction, decision.Action)
	}

	state, err := e.graph.Schema().Unmarshal(ckpt.State)
	if err != nil {
		return nil, fmt.Errorf("restore thread %s: %w", threadID, err)
	}
	resumed := make(map[string]ResumeDecision, len(ckpt.Interrupt.Resumed)+1)
	for k, v := range ckpt.Interrupt.Resumed {
		resumed[k] = v
	}
	resumed[ckpt.Interrupt.Key] = decision

	return e.execute(ctx, threadID, state, ckpt.Interrupt.NodeID, resumed)
}

// DeleteThread removes all persisted state for the thread.
func (e *Executor) DeleteThread(ctx context.Context, threadID string) error {
	mu := e.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()
	return e.saver.DeleteThread(ctx, threadID)
}

// loadState restores the latest persisted state for the thread, starting a
// fresh one for unknown threads and clearing any abandoned interrupt.
func (e *Executor) loadState(ctx context.Context, threadID string) (State, error) {
	ckpt, err := e.saver.Latest(ctx, threadID)
	if errors.Is(err, ErrThreadNotFound) {
		return e.graph.Schema().InitialState(), nil
	}
	if err != nil {
		return nil, err
	}
	state, err := e.graph.Schema().Unmarshal(ckpt.State)
	if err != nil {
		return nil, fmt.Errorf("restore thread %s: %w", threadID, err)
	}
	if ckpt.Interrupt != nil {
		log.Infof("thread %s: discarding abandoned interrupt at node %s", threadID, ckpt.Interrupt.NodeID)
		if e.onAbandoned != nil {
			if upd := e.onAbandoned(ctx, state, ckpt.Interrupt); upd != nil {
				state = e.graph.Schema().ApplyUpdate(state, upd)
			}
		}
	}
	return state, nil
}

// execute runs nodes from startNode until End, an interrupt, or an error.
// The resumed map is visible only to the first node, which is the one that
// raised the interrupt being resumed.
func (e *Executor) execute(ctx context.Context, threadID string, state State,
	startNode string, resumed map[string]ResumeDecision) (*Result, error) {
	current := startNode
	var version int64
	for step := 0; ; step++ {
		if step >= e.maxSteps {
			return nil, fmt.Errorf("thread %s: exceeded %d steps without reaching end", threadID, e.maxSteps)
		}
		node, ok := e.graph.Node(current)
		if !ok {
			return nil, fmt.Errorf("thread %s: node %s does not exist", threadID, current)
		}

		state[stateKeyExecContext] = &ExecContext{ThreadID: threadID, resumed: resumed}
		nodeCtx, span := itrace.Tracer.Start(ctx, "workflow.node."+node.ID)
		out, err := node.Function(nodeCtx, state)
		span.End()
		resumed = nil

		if err != nil {
			var intErr *InterruptError
			if errors.As(err, &intErr) {
				return e.suspend(ctx, threadID, state, node.ID, intErr)
			}
			return nil, fmt.Errorf("node %s: %w", node.ID, err)
		}

		next := ""
		switch v := out.(type) {
		case nil:
		case State:
			state = e.graph.Schema().ApplyUpdate(state, v)
		case *Command:
			if v.Update != nil {
				state = e.graph.Schema().ApplyUpdate(state, v.Update)
			}
			next = v.GoTo
		default:
			return nil, fmt.Errorf("node %s: unexpected result type %T", node.ID, out)
		}

		if next == "" {
			next, err = e.route(ctx, node.ID, state)
			if err != nil {
				return nil, err
			}
		}

		version, err = e.save(ctx, threadID, state, next, CheckpointSourceLoop, nil)
		if err != nil {
			return nil, err
		}
		if next == End {
			delete(state, stateKeyExecContext)
			return &Result{Type: ResultCompleted, FinalState: state, Version: version}, nil
		}
		log.Debugf("thread %s: %s -> %s", threadID, current, next)
		current = next
	}
}

// suspend persists the interrupt with the checkpoint and reports it.
func (e *Executor) suspend(ctx context.Context, threadID string, state State,
	nodeID string, intErr *InterruptError) (*Result, error) {
	execCtx, _ := state[stateKeyExecContext].(*ExecContext)
	var consumed map[string]ResumeDecision
	if execCtx != nil && len(execCtx.resumed) > 0 {
		consumed = execCtx.resumed
	}
	interrupt := &InterruptState{
		NodeID:  nodeID,
		Key:     intErr.Key,
		Request: intErr.Request,
		Resumed: consumed,
	}
	version, err := e.save(ctx, threadID, state, nodeID, CheckpointSourceInterrupt, interrupt)
	if err != nil {
		return nil, err
	}
	delete(state, stateKeyExecContext)
	return &Result{
		Type:       ResultInterrupted,
		FinalState: state,
		Interrupt:  intErr.Request,
		Version:    version,
	}, nil
}

// route resolves the next node from the graph's edges.
func (e *Executor) route(ctx context.Context, nodeID string, state State) (string, error) {
	if condEdge, ok := e.graph.ConditionalEdge(nodeID); ok {
		result, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("condition after node %s: %w", nodeID, err)
		}
		if target, ok := condEdge.PathMap[result]; ok {
			return target, nil
		}
		if result == End {
			return End, nil
		}
		if _, ok := e.graph.Node(result); ok {
			return result, nil
		}
		return "", fmt.Errorf("condition after node %s returned unroutable %q", nodeID, result)
	}
	if edges := e.graph.Edges(nodeID); len(edges) > 0 {
		return edges[0].To, nil
	}
	return End, nil
}

// save marshals the schema-declared state fields and writes a checkpoint.
func (e *Executor) save(ctx context.Context, threadID string, state State,
	nextNode, source string, interrupt *InterruptState) (int64, error) {
	raw, err := e.graph.Schema().Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("checkpoint thread %s: %w", threadID, err)
	}
	ckpt := NewCheckpoint(threadID, raw, nextNode, source)
	ckpt.Interrupt = interrupt
	version, err := e.saver.Save(ctx, ckpt)
	if err != nil {
		return 0, fmt.Errorf("checkpoint thread %s: %w", threadID, err)
	}
	return version, nil
}
