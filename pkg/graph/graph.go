// Package graph builds the in-memory dependency structure the scheduler
// walks: adjacency lists, in-degrees, and start nodes, with the structural
// checks needed before any node runs.
package graph

import (
	"github.com/reporunner/reporunner/pkg/models"
)

// Graph is the derived view of a workflow's nodes and edges. Built once per
// execution; read-only afterwards.
type Graph struct {
	workflow     *Workflow
	nodes        map[string]*models.Node
	outgoing     map[string][]*models.Edge
	incoming     map[string][]*models.Edge
	startNodeIDs []string
}

// Workflow aliases the definition type so callers only import graph.
type Workflow = models.Workflow

// Build validates the workflow structurally and computes adjacency,
// in-degree, and start nodes. It returns a ValidationError for duplicate or
// unknown node references, cyclic graphs, and graphs with no start node.
func Build(workflow *models.Workflow) (*Graph, error) {
	nodes := make(map[string]*models.Node, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if _, exists := nodes[node.ID]; exists {
			return nil, newValidationError(KindDuplicateNode, "duplicate node id "+node.ID)
		}

		nodes[node.ID] = node
	}

	outgoing := make(map[string][]*models.Edge)
	incoming := make(map[string][]*models.Edge)

	for _, edge := range workflow.Edges {
		if _, ok := nodes[edge.SourceNodeID]; !ok {
			return nil, newValidationError(KindUnknownNode, "edge "+edge.ID+" references unknown source node "+edge.SourceNodeID)
		}

		if _, ok := nodes[edge.TargetNodeID]; !ok {
			return nil, newValidationError(KindUnknownNode, "edge "+edge.ID+" references unknown target node "+edge.TargetNodeID)
		}

		outgoing[edge.SourceNodeID] = append(outgoing[edge.SourceNodeID], edge)
		incoming[edge.TargetNodeID] = append(incoming[edge.TargetNodeID], edge)
	}

	g := &Graph{
		workflow: workflow,
		nodes:    nodes,
		outgoing: outgoing,
		incoming: incoming,
	}

	for _, node := range workflow.Nodes {
		if len(incoming[node.ID]) == 0 {
			g.startNodeIDs = append(g.startNodeIDs, node.ID)
		}
	}

	if len(g.startNodeIDs) == 0 {
		return nil, newValidationError(KindNoStartNodes, "workflow has no start nodes")
	}

	if cycleNode := g.findCycle(); cycleNode != "" {
		return nil, newValidationError(KindCyclicGraph, "workflow contains a cycle through node "+cycleNode)
	}

	return g, nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id string) *models.Node {
	return g.nodes[id]
}

// Neighbors returns the outgoing edges of a node.
func (g *Graph) Neighbors(nodeID string) []*models.Edge {
	return g.outgoing[nodeID]
}

// Predecessors returns the incoming edges of a node.
func (g *Graph) Predecessors(nodeID string) []*models.Edge {
	return g.incoming[nodeID]
}

// InDegree returns the number of incoming edges of a node.
func (g *Graph) InDegree(nodeID string) int {
	return len(g.incoming[nodeID])
}

// StartNodeIDs returns the IDs of all nodes with in-degree zero, in
// definition order.
func (g *Graph) StartNodeIDs() []string {
	return g.startNodeIDs
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// findCycle runs a depth-first traversal with a recursion stack and returns
// a node on the first back-edge found, or "".
func (g *Graph) findCycle() string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)

	state := make(map[string]int, len(g.nodes))

	var visit func(id string) string

	visit = func(id string) string {
		state[id] = inStack

		for _, edge := range g.outgoing[id] {
			switch state[edge.TargetNodeID] {
			case inStack:
				return edge.TargetNodeID
			case unvisited:
				if hit := visit(edge.TargetNodeID); hit != "" {
					return hit
				}
			}
		}

		state[id] = done

		return ""
	}

	for _, node := range g.workflow.Nodes {
		if state[node.ID] == unvisited {
			if hit := visit(node.ID); hit != "" {
				return hit
			}
		}
	}

	return ""
}
