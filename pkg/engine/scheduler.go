// Package engine drives declarative node/edge workflows to completion:
// readiness-counting scheduling, input aggregation, conditional routing
// with skip propagation, retries, timeouts, and cancellation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/semaphore"

	"github.com/reporunner/reporunner/pkg/events"
	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/otelhelper"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/registry"
)

// Scheduler runs single executions to a terminal state. It holds no
// per-execution state and is safe for concurrent Run calls.
type Scheduler struct {
	logger     *slog.Logger
	registry   *registry.Registry
	executions persistence.ExecutionRepository
	sink       protocol.ProgressSink
	tracer     trace.Tracer
	workerID   string
}

// NewScheduler wires a scheduler from its collaborators. A nil sink
// discards progress events; a nil tracer disables spans.
func NewScheduler(
	logger *slog.Logger,
	reg *registry.Registry,
	executions persistence.ExecutionRepository,
	sink protocol.ProgressSink,
	tracer trace.Tracer,
	workerID string,
) *Scheduler {
	if sink == nil {
		sink = protocol.NoopSink{}
	}

	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	return &Scheduler{
		logger:     logger.With("module", "engine"),
		registry:   reg,
		executions: executions,
		sink:       sink,
		tracer:     tracer,
		workerID:   workerID,
	}
}

// run is the state of one execution in flight.
type run struct {
	*Scheduler

	graph     *graph.Graph
	workflow  *models.Workflow
	execution *models.Execution
	ec        *models.ExecutionContext
	outputs   *arena
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
	startedAt time.Time

	mu          sync.Mutex
	remaining   map[string]int // unsatisfied predecessors per node
	liveSignals map[string]int // completion (non-skip) signals received
	aborted     bool
	abortErr    error
	failedNode  string
}

// Run drives one execution to a terminal state. The graph must have been
// built (and therefore validated) from the same workflow. The returned
// error is nil for every normal terminal state including node failures;
// only scheduler-internal faults surface.
func (s *Scheduler) Run(
	ctx context.Context,
	g *graph.Graph,
	workflow *models.Workflow,
	execution *models.Execution,
	ec *models.ExecutionContext,
) error {
	concurrency := workflow.Settings.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	r := &run{
		Scheduler:   s,
		graph:       g,
		workflow:    workflow,
		execution:   execution,
		ec:          ec,
		outputs:     newArena(g.NodeCount()),
		sem:         semaphore.NewWeighted(int64(concurrency)),
		startedAt:   time.Now().UTC(),
		remaining:   make(map[string]int, g.NodeCount()),
		liveSignals: make(map[string]int, g.NodeCount()),
	}

	for _, node := range workflow.Nodes {
		r.remaining[node.ID] = g.InDegree(node.ID)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "engine.run",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
	)
	defer span.End()

	if err := s.executions.SetExecutionStatus(ctx, execution.ID, models.ExecutionStatusRunning, ""); err != nil {
		return NewEngineFatalError("set execution running", err)
	}

	execution.Status = models.ExecutionStatusRunning

	started := events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
		TriggerType: execution.TriggerType,
		TriggerData: execution.TriggerData,
	}
	started.WorkerID = s.workerID
	s.sink.Emit(ctx, started)

	for _, nodeID := range g.StartNodeIDs() {
		r.spawn(ctx, nodeID)
	}

	r.wg.Wait()

	return r.finalize(ctx, span)
}

func (r *run) spawn(ctx context.Context, nodeID string) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		r.runNode(ctx, nodeID)
	}()
}

// runNode owns the full lifecycle of one node: suspension, execution with
// retries and timeout, state persistence, and routing to successors. It is
// the only writer of this node's NodeExecution record.
func (r *run) runNode(ctx context.Context, nodeID string) {
	if r.cancelledOrAborted() {
		return
	}

	node := r.graph.Node(nodeID)
	logger := r.logger.With("execution_id", r.execution.ID, "node_id", nodeID, "node_type", node.Type)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "engine.node",
		attribute.String(otelhelper.ExecutionIDKey, r.execution.ID),
		attribute.String(otelhelper.NodeIDKey, nodeID),
		attribute.String(otelhelper.NodeTypeKey, node.Type),
	)
	defer span.End()

	executor, err := r.registry.CreateExecutor(ctx, node.Type, node.ID, node.Config)
	if err != nil {
		otelhelper.SetError(span, err)
		r.failNode(ctx, logger, node, nil, err, 0, time.Now().UTC())

		return
	}

	// Delay-style executors wait before the concurrency slot is taken so
	// a sleeping node never starves other ready nodes.
	if suspender, ok := executor.(protocol.Suspender); ok {
		if wait := suspender.SuspendFor(); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}

		if r.cancelledOrAborted() {
			return
		}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer r.sem.Release(1)

	if r.cancelledOrAborted() {
		return
	}

	input := aggregateInput(r.graph, node, r.outputs)
	startedAt := time.Now().UTC()

	ne := r.execution.NodeExecutions[nodeID]
	ne.Status = models.NodeStatusRunning
	ne.Input = input
	ne.StartedAt = &startedAt

	if !r.persistNode(ctx, logger, ne) {
		return
	}

	nodeStarted := events.NodeStarted{
		BaseEvent:   events.NewBaseEvent(events.NodeStartedEvent, r.workflow.ID),
		ExecutionID: r.execution.ID,
		NodeID:      nodeID,
	}
	nodeStarted.WorkerID = r.workerID
	r.sink.Emit(ctx, nodeStarted)

	logger.DebugContext(ctx, "Node started")

	result, err := r.executeWithRetries(ctx, logger, executor, node, input, ne)
	if err != nil {
		otelhelper.SetError(span, err)
		r.failNode(ctx, logger, node, ne, err, ne.RetryAttempt, startedAt)

		return
	}

	handle := result.Handle

	if handle != "" {
		if err := r.checkRouting(node, handle); err != nil {
			otelhelper.SetError(span, err)
			r.failNode(ctx, logger, node, ne, err, ne.RetryAttempt, startedAt)

			return
		}
	}

	endedAt := time.Now().UTC()
	ne.Status = models.NodeStatusSuccess
	ne.Output = result.Output
	ne.EndedAt = &endedAt

	if !r.persistNode(ctx, logger, ne) {
		return
	}

	r.outputs.record(nodeID, result.Output, handle)

	completed := events.NodeCompleted{
		BaseEvent:   events.NewBaseEvent(events.NodeCompletedEvent, r.workflow.ID),
		ExecutionID: r.execution.ID,
		NodeID:      nodeID,
		Output:      result.Output,
		DurationMs:  endedAt.Sub(startedAt).Milliseconds(),
	}
	completed.WorkerID = r.workerID
	r.sink.Emit(ctx, completed)

	logger.InfoContext(ctx, "Node completed", "duration_ms", completed.DurationMs)

	r.route(ctx, node, handle)
}

// executeWithRetries invokes the executor up to the node's retry budget,
// incrementing the retry counter on each re-attempt.
func (r *run) executeWithRetries(
	ctx context.Context,
	logger *slog.Logger,
	executor protocol.NodeExecutor,
	node *models.Node,
	input map[string]any,
	ne *models.NodeExecution,
) (*protocol.Result, error) {
	retries := node.RetryOnFail
	if retries == 0 {
		retries = r.workflow.Settings.RetryOnFail
	}

	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			ne.RetryAttempt = attempt
			if !r.persistNode(ctx, logger, ne) {
				return nil, lastErr
			}

			logger.WarnContext(ctx, "Retrying node", "retry_attempt", attempt, "error", lastErr)
		}

		result, err := r.invoke(ctx, executor, node, input)
		if err == nil {
			if result == nil {
				result = &protocol.Result{}
			}

			return result, nil
		}

		lastErr = err

		if r.cancelledOrAborted() || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

// invoke runs the executor once, enforcing the workflow's per-node timeout.
// A late result from a timed-out executor is discarded.
func (r *run) invoke(ctx context.Context, executor protocol.NodeExecutor, node *models.Node, input map[string]any) (*protocol.Result, error) {
	ec := r.ec.WithLogger(r.logger.With("execution_id", r.execution.ID, "node_id", node.ID))

	timeout := r.workflow.Settings.Timeout
	if timeout <= 0 {
		return executor.Execute(ctx, ec, input)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *protocol.Result
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		result, err := executor.Execute(invokeCtx, ec, input)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-invokeCtx.Done():
		if errors.Is(invokeCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{NodeID: node.ID, Timeout: timeout}
		}

		return nil, invokeCtx.Err()
	}
}

// checkRouting verifies the chosen handle is carried by an outgoing edge.
// Terminal nodes route nowhere, so any handle is acceptable there.
func (r *run) checkRouting(node *models.Node, handle string) error {
	edges := r.graph.Neighbors(node.ID)
	if len(edges) == 0 {
		return nil
	}

	for _, edge := range edges {
		if edge.Handle() == handle {
			return nil
		}
	}

	return &RoutingError{NodeID: node.ID, Handle: handle}
}

// failNode records a node failure after retries are exhausted and applies
// the workflow's error policy. Under continue the node's successors still
// run, seeing an error payload as the predecessor output; under stop the
// whole execution aborts.
func (r *run) failNode(ctx context.Context, logger *slog.Logger, node *models.Node, ne *models.NodeExecution, nodeErr error, retryAttempt int, startedAt time.Time) {
	endedAt := time.Now().UTC()

	if ne == nil {
		ne = r.execution.NodeExecutions[node.ID]
		ne.StartedAt = &startedAt
	}

	ne.Status = models.NodeStatusError
	ne.Error = nodeErr.Error()
	ne.EndedAt = &endedAt

	r.persistNode(ctx, logger, ne)

	failed := events.NodeFailed{
		BaseEvent:    events.NewBaseEvent(events.NodeFailedEvent, r.workflow.ID),
		ExecutionID:  r.execution.ID,
		NodeID:       node.ID,
		Error:        nodeErr.Error(),
		RetryAttempt: retryAttempt,
		DurationMs:   endedAt.Sub(startedAt).Milliseconds(),
	}
	failed.WorkerID = r.workerID
	r.sink.Emit(ctx, failed)

	logger.ErrorContext(ctx, "Node failed", "error", nodeErr, "retry_attempt", retryAttempt)

	if r.workflow.ErrorHandlingOrDefault() == models.ErrorHandlingStop {
		r.abort(node.ID, nodeErr)

		return
	}

	r.outputs.record(node.ID, map[string]any{"error": nodeErr.Error()}, "")
	r.route(ctx, node, "")
}

// route delivers completion signals to every successor. An empty handle
// activates all outgoing edges; otherwise only the matching edge gets a
// live signal and the rest get skip signals.
func (r *run) route(ctx context.Context, node *models.Node, handle string) {
	var ready, skipped []string

	r.mu.Lock()

	for _, edge := range r.graph.Neighbors(node.ID) {
		live := handle == "" || edge.Handle() == handle
		r.signalLocked(edge.TargetNodeID, live, &ready, &skipped)
	}

	r.mu.Unlock()

	r.settle(ctx, ready, skipped)
}

// signalLocked decrements one predecessor slot of target. Callers hold mu.
func (r *run) signalLocked(target string, live bool, ready, skipped *[]string) {
	if live {
		r.liveSignals[target]++
	}

	r.remaining[target]--
	if r.remaining[target] != 0 {
		return
	}

	if r.liveSignals[target] > 0 {
		*ready = append(*ready, target)
	} else {
		*skipped = append(*skipped, target)
	}
}

// settle spawns nodes that became ready and marks nodes whose every
// predecessor was a skip signal as skipped, propagating the skip onward.
func (r *run) settle(ctx context.Context, ready, skipped []string) {
	for _, nodeID := range ready {
		r.spawn(ctx, nodeID)
	}

	for len(skipped) > 0 {
		nodeID := skipped[0]
		skipped = skipped[1:]

		r.markSkipped(ctx, nodeID)

		r.mu.Lock()

		for _, edge := range r.graph.Neighbors(nodeID) {
			var nowReady []string

			r.signalLocked(edge.TargetNodeID, false, &nowReady, &skipped)

			for _, readyID := range nowReady {
				r.spawn(ctx, readyID)
			}
		}

		r.mu.Unlock()
	}
}

func (r *run) markSkipped(ctx context.Context, nodeID string) {
	ne := r.execution.NodeExecutions[nodeID]
	if ne.Status != models.NodeStatusPending {
		return
	}

	ne.Status = models.NodeStatusSkipped

	logger := r.logger.With("execution_id", r.execution.ID, "node_id", nodeID)
	logger.DebugContext(ctx, "Node skipped")

	r.persistNode(ctx, logger, ne)
}

// persistNode upserts one node record. A storage failure is a fault of the
// whole execution, not of the node.
func (r *run) persistNode(ctx context.Context, logger *slog.Logger, ne *models.NodeExecution) bool {
	if err := r.executions.UpdateNodeExecution(ctx, r.execution.ID, ne.NodeID, ne); err != nil {
		logger.ErrorContext(ctx, "Failed to persist node state", "error", err)
		r.fatal(NewEngineFatalError("update node execution", err))

		return false
	}

	return true
}

func (r *run) abort(nodeID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.aborted {
		return
	}

	r.aborted = true
	r.abortErr = err
	r.failedNode = nodeID
}

func (r *run) fatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.aborted {
		return
	}

	r.aborted = true
	r.abortErr = err
}

func (r *run) cancelledOrAborted() bool {
	if r.ec.Cancelled() {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.aborted
}

// finalize settles leftover pending nodes, computes the terminal status,
// persists it, and emits the terminal event.
func (r *run) finalize(ctx context.Context, span trace.Span) error {
	endedAt := time.Now().UTC()

	for _, node := range r.workflow.Nodes {
		ne := r.execution.NodeExecutions[node.ID]
		if ne.Status == models.NodeStatusPending {
			r.markSkipped(ctx, node.ID)
		}
	}

	executed := 0

	for _, ne := range r.execution.NodeExecutions {
		if ne.Status == models.NodeStatusSuccess || ne.Status == models.NodeStatusError {
			executed++
		}
	}

	status := models.ExecutionStatusSuccess

	var (
		errorMessage string
		fatalErr     error
	)

	r.mu.Lock()
	aborted, abortErr, failedNode := r.aborted, r.abortErr, r.failedNode
	r.mu.Unlock()

	switch {
	case r.ec.Cancelled():
		status = models.ExecutionStatusCancelled
	case aborted:
		status = models.ExecutionStatusError
		errorMessage = abortErr.Error()

		if IsEngineFatalError(abortErr) {
			fatalErr = abortErr
		}
	}

	r.execution.Status = status
	r.execution.ErrorMessage = errorMessage
	r.execution.EndedAt = &endedAt

	if err := r.executions.SetExecutionStatus(ctx, r.execution.ID, status, errorMessage); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist terminal execution state",
			"execution_id", r.execution.ID, "error", err)

		if fatalErr == nil {
			fatalErr = NewEngineFatalError("set terminal execution status", err)
		}
	}

	durationMs := endedAt.Sub(r.startedAt).Milliseconds()

	if status == models.ExecutionStatusSuccess {
		completed := events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, r.workflow.ID),
			ExecutionID:   r.execution.ID,
			Status:        status,
			NodesExecuted: executed,
			DurationMs:    durationMs,
		}
		completed.WorkerID = r.workerID
		r.sink.Emit(ctx, completed)
	} else {
		failed := events.ExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, r.workflow.ID),
			ExecutionID:   r.execution.ID,
			Status:        status,
			Error:         errorMessage,
			FailedNodeID:  failedNode,
			NodesExecuted: executed,
			DurationMs:    durationMs,
		}
		failed.WorkerID = r.workerID
		r.sink.Emit(ctx, failed)

		if fatalErr != nil {
			otelhelper.SetError(span, fatalErr)
		}
	}

	r.logger.InfoContext(ctx, "Execution finished",
		"execution_id", r.execution.ID,
		"status", status,
		"nodes_executed", executed,
		"duration_ms", durationMs)

	if fatalErr != nil {
		return fmt.Errorf("execution %s: %w", r.execution.ID, fatalErr)
	}

	return nil
}
