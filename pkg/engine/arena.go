package engine

import "sync"

// nodeOutcome is the routing-relevant result of one finished node.
type nodeOutcome struct {
	output map[string]any
	handle string
}

// arena is the execution-scoped store of node outputs. Concurrent node
// tasks write their own outcome and read their predecessors'; all access
// goes through the mutex, never through shared references.
type arena struct {
	mu       sync.Mutex
	outcomes map[string]nodeOutcome
}

func newArena(size int) *arena {
	return &arena{outcomes: make(map[string]nodeOutcome, size)}
}

// record stores a finished node's output and chosen handle.
func (a *arena) record(nodeID string, output map[string]any, handle string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.outcomes[nodeID] = nodeOutcome{output: output, handle: handle}
}

// output returns a finished node's output. The second return reports
// whether the node has recorded one.
func (a *arena) output(nodeID string) (map[string]any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	outcome, ok := a.outcomes[nodeID]

	return outcome.output, ok
}
