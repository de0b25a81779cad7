package engine

import (
	"strings"

	"github.com/reporunner/reporunner/pkg/graph"
	"github.com/reporunner/reporunner/pkg/models"
)

// Keys commonly used by executors for their main payload. When exactly one
// predecessor carries one of these, it is lifted to the top level of the
// aggregated input so expressions can reference it without knowing the
// upstream topology.
var flattenKeys = []string{"output", "data", "result", "response"}

type predecessorOutput struct {
	edge   *models.Edge
	source *models.Node
	output map[string]any
}

// aggregateInput builds a node's input from the outputs of its completed
// predecessors. Skipped predecessors contribute nothing.
//
// Zero predecessors yield nil. One predecessor passes its output through
// directly. With several, outputs are keyed by each edge's source handle.
// Every predecessor output is also reachable by source node ID and by the
// sanitized node label, and node configuration values are merged in as
// defaults that never override real data.
func aggregateInput(g *graph.Graph, node *models.Node, outputs *arena) map[string]any {
	var preds []predecessorOutput

	for _, edge := range g.Predecessors(node.ID) {
		output, ok := outputs.output(edge.SourceNodeID)
		if !ok {
			continue
		}

		preds = append(preds, predecessorOutput{
			edge:   edge,
			source: g.Node(edge.SourceNodeID),
			output: output,
		})
	}

	if len(preds) == 0 && len(node.Config) == 0 {
		return nil
	}

	input := make(map[string]any)

	switch len(preds) {
	case 0:
	case 1:
		for k, v := range preds[0].output {
			input[k] = v
		}
	default:
		for _, pred := range preds {
			input[pred.edge.Handle()] = pred.output
		}
	}

	for _, pred := range preds {
		setIfAbsent(input, pred.edge.SourceNodeID, pred.output)

		if label := sanitizeLabel(pred.source.Label); label != "" {
			setIfAbsent(input, label, pred.output)
		}
	}

	if len(preds) > 1 {
		flattenCommonKeys(input, preds)
	}

	for k, v := range node.Config {
		setIfAbsent(input, k, v)
	}

	return input
}

// flattenCommonKeys lifts each well-known key to the top level when exactly
// one predecessor output carries it.
func flattenCommonKeys(input map[string]any, preds []predecessorOutput) {
	for _, key := range flattenKeys {
		var (
			value any
			seen  int
		)

		for _, pred := range preds {
			if v, ok := pred.output[key]; ok {
				value = v
				seen++
			}
		}

		if seen == 1 {
			setIfAbsent(input, key, value)
		}
	}
}

func setIfAbsent(m map[string]any, key string, value any) {
	if _, taken := m[key]; !taken {
		m[key] = value
	}
}

// sanitizeLabel lowercases a node label and strips everything that is not a
// letter or digit.
func sanitizeLabel(label string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}
