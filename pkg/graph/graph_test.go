package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reporunner/reporunner/pkg/models"
)

func node(id string) *models.Node {
	return &models.Node{ID: id, Type: models.NodeTypeTransform}
}

func edge(id, source, target string) *models.Edge {
	return &models.Edge{ID: id, SourceNodeID: source, TargetNodeID: target}
}

func TestBuildDiamond(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-diamond",
		Name:  "diamond",
		Nodes: []*models.Node{node("a"), node("b"), node("c"), node("d")},
		Edges: []*models.Edge{
			edge("e1", "a", "b"),
			edge("e2", "a", "c"),
			edge("e3", "b", "d"),
			edge("e4", "c", "d"),
		},
	}

	g, err := Build(workflow)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, g.StartNodeIDs())
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 0, g.InDegree("a"))
	assert.Equal(t, 2, g.InDegree("d"))
	assert.Len(t, g.Neighbors("a"), 2)
	assert.Empty(t, g.Neighbors("d"))
	assert.Len(t, g.Predecessors("d"), 2)
	assert.NotNil(t, g.Node("c"))
	assert.Nil(t, g.Node("ghost"))
}

func TestBuildMultipleStartNodes(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-multi",
		Name:  "multi",
		Nodes: []*models.Node{node("a"), node("b"), node("join")},
		Edges: []*models.Edge{
			edge("e1", "a", "join"),
			edge("e2", "b", "join"),
		},
	}

	g, err := Build(workflow)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.StartNodeIDs())
}

func TestBuildRejectsDuplicateNode(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-dup",
		Name:  "dup",
		Nodes: []*models.Node{node("a"), node("a")},
	}

	_, err := Build(workflow)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "duplicate_node")
}

func TestBuildRejectsUnknownEdgeReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edge *models.Edge
	}{
		{"unknown source", edge("e1", "ghost", "a")},
		{"unknown target", edge("e1", "a", "ghost")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			workflow := &models.Workflow{
				ID:    "wf-unknown",
				Name:  "unknown",
				Nodes: []*models.Node{node("a")},
				Edges: []*models.Edge{tt.edge},
			}

			_, err := Build(workflow)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), "ghost")
		})
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-cycle",
		Name:  "cycle",
		Nodes: []*models.Node{node("start"), node("a"), node("b"), node("c")},
		Edges: []*models.Edge{
			edge("e1", "start", "a"),
			edge("e2", "a", "b"),
			edge("e3", "b", "c"),
			edge("e4", "c", "a"),
		},
	}

	_, err := Build(workflow)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "cyclic_graph")
}

func TestBuildRejectsNoStartNodes(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-nostart",
		Name:  "nostart",
		Nodes: []*models.Node{node("a"), node("b")},
		Edges: []*models.Edge{
			edge("e1", "a", "b"),
			edge("e2", "b", "a"),
		},
	}

	_, err := Build(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_start_nodes")
}

func TestBuildSelfLoopIsCycle(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:    "wf-self",
		Name:  "self",
		Nodes: []*models.Node{node("start"), node("loop")},
		Edges: []*models.Edge{
			edge("e1", "start", "loop"),
			edge("e2", "loop", "loop"),
		},
	}

	_, err := Build(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic_graph")
}

func TestEdgeHandleDefaults(t *testing.T) {
	t.Parallel()

	plain := edge("e1", "a", "b")
	assert.Equal(t, models.DefaultHandle, plain.Handle())

	named := &models.Edge{ID: "e2", SourceNodeID: "a", TargetNodeID: "b", SourceHandle: "true"}
	assert.Equal(t, "true", named.Handle())
}
