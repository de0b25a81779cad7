package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/events"
	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/persistence"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/registry"
)

// memStore is an in-memory persistence used by the engine tests. It clones
// records on the way in so stored state is independent of the scheduler's
// working copies.
type memStore struct {
	mu         sync.Mutex
	workflows  map[string]*models.Workflow
	executions map[string]*models.Execution
}

func newMemStore() *memStore {
	return &memStore{
		workflows:  make(map[string]*models.Workflow),
		executions: make(map[string]*models.Execution),
	}
}

func (s *memStore) WorkflowRepository() persistence.WorkflowRepository { return s }

func (s *memStore) ExecutionRepository() persistence.ExecutionRepository { return s }

func (s *memStore) HealthCheck(context.Context) error { return nil }

func (s *memStore) Close(context.Context) error { return nil }

func (s *memStore) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[workflow.ID] = workflow

	return nil
}

func (s *memStore) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (s *memStore) ListWorkflows(context.Context) ([]*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflows := make([]*models.Workflow, 0, len(s.workflows))
	for _, workflow := range s.workflows {
		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

func (s *memStore) DeleteWorkflow(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.workflows, id)

	return nil
}

func cloneExecution(execution *models.Execution) *models.Execution {
	clone := *execution
	clone.NodeExecutions = make(map[string]*models.NodeExecution, len(execution.NodeExecutions))

	for id, ne := range execution.NodeExecutions {
		copied := *ne
		clone.NodeExecutions[id] = &copied
	}

	return &clone
}

func (s *memStore) CreateExecution(_ context.Context, execution *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[execution.ID] = cloneExecution(execution)

	return nil
}

func (s *memStore) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	execution, ok := s.executions[id]
	if !ok {
		return nil, persistence.ErrExecutionNotFound
	}

	return cloneExecution(execution), nil
}

func (s *memStore) UpdateNodeExecution(_ context.Context, executionID, nodeID string, ne *models.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	execution, ok := s.executions[executionID]
	if !ok {
		return persistence.ErrExecutionNotFound
	}

	copied := *ne
	execution.NodeExecutions[nodeID] = &copied

	return nil
}

func (s *memStore) SetExecutionStatus(_ context.Context, executionID string, status models.ExecutionStatus, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	execution, ok := s.executions[executionID]
	if !ok {
		return persistence.ErrExecutionNotFound
	}

	execution.Status = status
	execution.ErrorMessage = errorMessage

	return nil
}

func (s *memStore) ListExecutions(_ context.Context, workflowID string, limit, offset int) ([]*models.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Execution

	for _, execution := range s.executions {
		if execution.WorkflowID == workflowID {
			result = append(result, cloneExecution(execution))
		}
	}

	if offset > len(result) {
		offset = len(result)
	}

	result = result[offset:]

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}

	return result, nil
}

// captureSink records emitted progress events.
type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureSink) Emit(_ context.Context, event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *captureSink) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]events.EventType, 0, len(c.events))
	for _, event := range c.events {
		types = append(types, event.GetType())
	}

	return types
}

// execFn adapts a function to the NodeExecutor interface.
type execFn func(ctx context.Context, ec *models.ExecutionContext, input map[string]any) (*protocol.Result, error)

func (f execFn) Execute(ctx context.Context, ec *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	return f(ctx, ec, input)
}

// testFactory registers an executor function under a node type.
type testFactory struct {
	typeID string
	fn     func(nodeID string, config map[string]any) protocol.NodeExecutor
}

func (f *testFactory) Create(_ context.Context, nodeID string, config map[string]any) (protocol.NodeExecutor, error) {
	return f.fn(nodeID, config), nil
}

func (f *testFactory) ID() string { return f.typeID }

func (f *testFactory) Name() string { return f.typeID }

func (f *testFactory) Description() string { return "test executor" }

func (f *testFactory) Schema() map[string]any { return nil }

// orderRecorder tracks the order node executors ran in.
type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *orderRecorder) add(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = append(r.order, nodeID)
}

func (r *orderRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.order...)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// workFactory produces executors that record their run order and emit the
// node's "produce" config value as output.
func workFactory(recorder *orderRecorder) *testFactory {
	return &testFactory{
		typeID: "work",
		fn: func(nodeID string, config map[string]any) protocol.NodeExecutor {
			return execFn(func(_ context.Context, _ *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
				recorder.add(nodeID)

				output := map[string]any{"ran": nodeID}
				if produce, ok := config["produce"].(map[string]any); ok {
					output = produce
				}

				_ = input

				return &protocol.Result{Output: output}, nil
			})
		},
	}
}

func node(id, nodeType string, config map[string]any) *models.Node {
	return &models.Node{ID: id, Type: nodeType, Config: config}
}

func edge(id, source, target string) *models.Edge {
	return &models.Edge{ID: id, SourceNodeID: source, TargetNodeID: target}
}

func handleEdge(id, source, target, handle string) *models.Edge {
	return &models.Edge{ID: id, SourceNodeID: source, TargetNodeID: target, SourceHandle: handle}
}

// runWorkflow drives one execution synchronously and returns the stored
// record alongside the scheduler's working copy.
func runWorkflow(t *testing.T, reg *registry.Registry, workflow *models.Workflow, sink protocol.ProgressSink) (*memStore, *models.Execution, error) {
	t.Helper()

	store := newMemStore()

	g, err := graph.Build(workflow)
	require.NoError(t, err)

	execution := models.NewExecution("exec-test", workflow, models.TriggerTypeManual, map[string]any{"from": "test"})
	require.NoError(t, store.CreateExecution(context.Background(), execution))

	ec := models.NewExecutionContext(execution.ID, workflow.ID, "", execution.TriggerData)
	for k, v := range workflow.Variables {
		ec.Variables[k] = v
	}

	scheduler := NewScheduler(discard(), reg, store, sink, nil, "worker-test")
	runErr := scheduler.Run(context.Background(), g, workflow, execution, ec)

	return store, execution, runErr
}

func TestLinearChainRunsInOrder(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))

	bOutput := map[string]any{"payload": "from-b"}

	workflow := &models.Workflow{
		ID:   "wf-linear",
		Name: "linear",
		Nodes: []*models.Node{
			node("a", "work", nil),
			node("b", "work", map[string]any{"produce": bOutput}),
			node("c", "work", nil),
		},
		Edges: []*models.Edge{
			edge("e1", "a", "b"),
			edge("e2", "b", "c"),
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, recorder.get())
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, stored.Status)

	// C's input is B's output directly.
	assert.Equal(t, "from-b", stored.NodeExecutions["c"].Input["payload"])
}

func TestDiamondFanInRunsOnce(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))

	workflow := &models.Workflow{
		ID:   "wf-diamond",
		Name: "diamond",
		Nodes: []*models.Node{
			node("a", "work", nil),
			node("b", "work", map[string]any{"produce": map[string]any{"side": "b"}}),
			node("c", "work", map[string]any{"produce": map[string]any{"side": "c"}}),
			node("d", "work", nil),
		},
		Edges: []*models.Edge{
			edge("e1", "a", "b"),
			edge("e2", "a", "c"),
			handleEdge("e3", "b", "d", "left"),
			handleEdge("e4", "c", "d", "right"),
		},
		Settings: models.WorkflowSettings{Concurrency: 4},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	order := recorder.get()
	require.Len(t, order, 4)
	assert.Equal(t, "a", order[0])
	assert.Equal(t, "d", order[3])

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)

	// Fan-in input is keyed by each predecessor edge's source handle.
	dInput := stored.NodeExecutions["d"].Input
	left, ok := dInput["left"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b", left["side"])

	right, ok := dInput["right"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c", right["side"])
}

// routeFactory returns executors that route to the handle named in config.
func routeFactory() *testFactory {
	return &testFactory{
		typeID: "route",
		fn: func(nodeID string, config map[string]any) protocol.NodeExecutor {
			return execFn(func(_ context.Context, _ *models.ExecutionContext, _ map[string]any) (*protocol.Result, error) {
				handle, _ := config["route_to"].(string)

				return &protocol.Result{
					Output: map[string]any{"output_handle": handle},
					Handle: handle,
				}, nil
			})
		},
	}
}

func TestConditionRoutingSkipsOtherBranch(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))
	reg.Register(routeFactory())

	workflow := &models.Workflow{
		ID:   "wf-branch",
		Name: "branch",
		Nodes: []*models.Node{
			node("decide", "route", map[string]any{"route_to": "e1"}),
			node("ok_target", "work", nil),
			node("other_target", "work", nil),
		},
		Edges: []*models.Edge{
			handleEdge("edge-1", "decide", "ok_target", "e1"),
			handleEdge("edge-2", "decide", "other_target", "e2"),
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
	assert.Equal(t, []string{"ok_target"}, recorder.get())

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusSuccess, stored.NodeExecutions["ok_target"].Status)
	assert.Equal(t, models.NodeStatusSkipped, stored.NodeExecutions["other_target"].Status)
}

func TestSkipPropagatesRecursively(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))
	reg.Register(routeFactory())

	// decide -> (e1) live -> join
	// decide -> (e2) skip -> mid -> tail -> join
	// join has one live and one skipped predecessor, so it still runs.
	workflow := &models.Workflow{
		ID:   "wf-skipchain",
		Name: "skipchain",
		Nodes: []*models.Node{
			node("decide", "route", map[string]any{"route_to": "e1"}),
			node("live", "work", nil),
			node("mid", "work", nil),
			node("tail", "work", nil),
			node("join", "work", nil),
		},
		Edges: []*models.Edge{
			handleEdge("edge-1", "decide", "live", "e1"),
			handleEdge("edge-2", "decide", "mid", "e2"),
			edge("edge-3", "mid", "tail"),
			edge("edge-4", "live", "join"),
			edge("edge-5", "tail", "join"),
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusSkipped, stored.NodeExecutions["mid"].Status)
	assert.Equal(t, models.NodeStatusSkipped, stored.NodeExecutions["tail"].Status)
	assert.Equal(t, models.NodeStatusSuccess, stored.NodeExecutions["join"].Status)
	assert.Contains(t, recorder.get(), "join")
	assert.NotContains(t, recorder.get(), "mid")
	assert.NotContains(t, recorder.get(), "tail")
}

// failFactory produces executors that fail until the configured attempt.
func failFactory(counter *orderRecorder) *testFactory {
	return &testFactory{
		typeID: "flaky",
		fn: func(nodeID string, config map[string]any) protocol.NodeExecutor {
			succeedOn := -1
			if v, ok := config["succeed_on_attempt"].(int); ok {
				succeedOn = v
			}

			attempt := 0

			return execFn(func(_ context.Context, _ *models.ExecutionContext, _ map[string]any) (*protocol.Result, error) {
				counter.add(nodeID)
				attempt++

				if succeedOn >= 0 && attempt >= succeedOn {
					return &protocol.Result{Output: map[string]any{"attempt": attempt}}, nil
				}

				return nil, protocol.NewNodeExecutionError(nodeID, errors.New("boom"))
			})
		},
	}
}

func TestStopPolicySkipsDownstream(t *testing.T) {
	recorder := &orderRecorder{}
	attempts := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))
	reg.Register(failFactory(attempts))

	workflow := &models.Workflow{
		ID:   "wf-stop",
		Name: "stop",
		Nodes: []*models.Node{
			node("a", "work", nil),
			node("bad", "flaky", nil),
			node("c", "work", nil),
		},
		Edges: []*models.Edge{
			edge("e1", "a", "bad"),
			edge("e2", "bad", "c"),
		},
		Settings: models.WorkflowSettings{
			ErrorHandling: models.ErrorHandlingStop,
			RetryOnFail:   2,
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, execution.Status)
	assert.NotEmpty(t, execution.ErrorMessage)

	// Initial attempt plus two retries.
	assert.Len(t, attempts.get(), 3)
	assert.NotContains(t, recorder.get(), "c")

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusError, stored.NodeExecutions["bad"].Status)
	assert.Equal(t, 2, stored.NodeExecutions["bad"].RetryAttempt)
	assert.Equal(t, models.NodeStatusSkipped, stored.NodeExecutions["c"].Status)
	assert.Equal(t, models.ExecutionStatusError, stored.Status)
}

func TestContinuePolicyLetsBranchesProceed(t *testing.T) {
	recorder := &orderRecorder{}
	attempts := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))
	reg.Register(failFactory(attempts))

	workflow := &models.Workflow{
		ID:   "wf-continue",
		Name: "continue",
		Nodes: []*models.Node{
			node("a", "work", nil),
			node("bad", "flaky", nil),
			node("after_bad", "work", nil),
			node("sibling", "work", nil),
		},
		Edges: []*models.Edge{
			edge("e1", "a", "bad"),
			edge("e2", "bad", "after_bad"),
			edge("e3", "a", "sibling"),
		},
		Settings: models.WorkflowSettings{
			ErrorHandling: models.ErrorHandlingContinue,
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusError, stored.NodeExecutions["bad"].Status)
	assert.Equal(t, models.NodeStatusSuccess, stored.NodeExecutions["sibling"].Status)

	// The failed node's successor runs, seeing the error payload as input.
	assert.Equal(t, models.NodeStatusSuccess, stored.NodeExecutions["after_bad"].Status)
	assert.Contains(t, stored.NodeExecutions["after_bad"].Input, "error")
}

func TestRetrySucceedsOnLaterAttempt(t *testing.T) {
	attempts := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(failFactory(attempts))

	workflow := &models.Workflow{
		ID:   "wf-retry",
		Name: "retry",
		Nodes: []*models.Node{
			{ID: "flaky-1", Type: "flaky", Config: map[string]any{"succeed_on_attempt": 3}, RetryOnFail: 2},
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusSuccess, stored.NodeExecutions["flaky-1"].Status)
	assert.Equal(t, 2, stored.NodeExecutions["flaky-1"].RetryAttempt)
	assert.Len(t, attempts.get(), 3)
}

func TestNodeTimeout(t *testing.T) {
	reg := registry.NewRegistry(discard())
	reg.Register(&testFactory{
		typeID: "slow",
		fn: func(nodeID string, _ map[string]any) protocol.NodeExecutor {
			return execFn(func(ctx context.Context, _ *models.ExecutionContext, _ map[string]any) (*protocol.Result, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return &protocol.Result{}, nil
				}
			})
		},
	})

	workflow := &models.Workflow{
		ID:   "wf-timeout",
		Name: "timeout",
		Nodes: []*models.Node{
			node("sleepy", "slow", nil),
		},
		Settings: models.WorkflowSettings{
			ErrorHandling: models.ErrorHandlingStop,
			Timeout:       20 * time.Millisecond,
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusError, stored.NodeExecutions["sleepy"].Status)
	assert.Contains(t, stored.NodeExecutions["sleepy"].Error, "timed out")
}

func TestCancellationStopsFurtherNodes(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))

	var (
		ecRef *models.ExecutionContext
		once  sync.Once
	)

	reg.Register(&testFactory{
		typeID: "canceller",
		fn: func(nodeID string, _ map[string]any) protocol.NodeExecutor {
			return execFn(func(_ context.Context, ec *models.ExecutionContext, _ map[string]any) (*protocol.Result, error) {
				once.Do(func() {
					ecRef = ec
					ec.Cancel()
				})

				return &protocol.Result{}, nil
			})
		},
	})

	workflow := &models.Workflow{
		ID:   "wf-cancel",
		Name: "cancel",
		Nodes: []*models.Node{
			node("first", "canceller", nil),
			node("second", "work", nil),
		},
		Edges: []*models.Edge{
			edge("e1", "first", "second"),
		},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	require.NotNil(t, ecRef)

	assert.Equal(t, models.ExecutionStatusCancelled, execution.Status)
	assert.Empty(t, recorder.get())

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusSkipped, stored.NodeExecutions["second"].Status)
}

func TestRoutingErrorWhenHandleHasNoEdge(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))
	reg.Register(routeFactory())

	workflow := &models.Workflow{
		ID:   "wf-badroute",
		Name: "badroute",
		Nodes: []*models.Node{
			node("decide", "route", map[string]any{"route_to": "nowhere"}),
			node("target", "work", nil),
		},
		Edges: []*models.Edge{
			handleEdge("e1", "decide", "target", "e1"),
		},
		Settings: models.WorkflowSettings{ErrorHandling: models.ErrorHandlingStop},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, execution.Status)
	assert.Contains(t, execution.ErrorMessage, "nowhere")

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStatusError, stored.NodeExecutions["decide"].Status)
	assert.Empty(t, recorder.get())
}

func TestTerminalNodeHandleIsNotARoutingError(t *testing.T) {
	reg := registry.NewRegistry(discard())
	reg.Register(routeFactory())

	workflow := &models.Workflow{
		ID:   "wf-terminal",
		Name: "terminal",
		Nodes: []*models.Node{
			node("decide", "route", map[string]any{"route_to": "anything"}),
		},
	}

	_, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)
}

func TestProgressEventsEmitted(t *testing.T) {
	recorder := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(workFactory(recorder))

	workflow := &models.Workflow{
		ID:   "wf-events",
		Name: "events",
		Nodes: []*models.Node{
			node("only", "work", nil),
		},
	}

	sink := &captureSink{}

	_, _, err := runWorkflow(t, reg, workflow, sink)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.NodeStartedEvent,
		events.NodeCompletedEvent,
		events.ExecutionCompletedEvent,
	}, sink.types())
}

func TestFailureEventsEmitted(t *testing.T) {
	attempts := &orderRecorder{}
	reg := registry.NewRegistry(discard())
	reg.Register(failFactory(attempts))

	workflow := &models.Workflow{
		ID:   "wf-fail-events",
		Name: "fail events",
		Nodes: []*models.Node{
			node("bad", "flaky", nil),
		},
		Settings: models.WorkflowSettings{ErrorHandling: models.ErrorHandlingStop},
	}

	sink := &captureSink{}

	_, _, err := runWorkflow(t, reg, workflow, sink)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.ExecutionStartedEvent,
		events.NodeStartedEvent,
		events.NodeFailedEvent,
		events.ExecutionFailedEvent,
	}, sink.types())
}

func TestUnregisteredNodeTypeFailsNode(t *testing.T) {
	reg := registry.NewRegistry(discard())

	workflow := &models.Workflow{
		ID:   "wf-unknown-type",
		Name: "unknown type",
		Nodes: []*models.Node{
			node("mystery", "no_such_type", nil),
		},
		Settings: models.WorkflowSettings{ErrorHandling: models.ErrorHandlingStop},
	}

	store, execution, err := runWorkflow(t, reg, workflow, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusError, execution.Status)

	stored, err := store.GetExecution(context.Background(), execution.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.NodeExecutions["mystery"].Error, "not registered")
}
