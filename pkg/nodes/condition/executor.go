// Package condition provides the branching executor that picks one outgoing
// edge based on an ordered rule list.
package condition

import (
	"context"
	"errors"

	"github.com/reporunner/reporunner/pkg/condition"
	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
)

// Executor evaluates its rule list against the node input and routes to the
// matched rule's output handle. "No match" routes to the default handle and
// is never an error; only malformed rule definitions fail.
type Executor struct {
	id            string
	rules         []condition.Rule
	defaultHandle string
}

func NewExecutor(id string, config map[string]any) (*Executor, error) {
	raw, ok := config["rules"]
	if !ok {
		return nil, errors.New("missing required field 'rules'")
	}

	rules, err := condition.ParseRules(raw)
	if err != nil {
		return nil, err
	}

	defaultHandle := models.DefaultHandle
	if handle, ok := config["default_output_handle"].(string); ok && handle != "" {
		defaultHandle = handle
	}

	return &Executor{
		id:            id,
		rules:         rules,
		defaultHandle: defaultHandle,
	}, nil
}

func (e *Executor) Execute(_ context.Context, _ *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	decision, err := condition.EvaluateRules(input, e.rules, e.defaultHandle)
	if err != nil {
		return nil, protocol.NewNodeExecutionError(e.id, err)
	}

	output := map[string]any{
		"output_handle": decision.OutputHandle,
		"matched_rule":  nil,
	}

	if decision.MatchedRule != nil {
		output["matched_rule"] = map[string]any{
			"field":         decision.MatchedRule.Field,
			"operator":      decision.MatchedRule.Operator,
			"value":         decision.MatchedRule.Value,
			"output_handle": decision.MatchedRule.OutputHandle,
		}
	}

	return &protocol.Result{
		Output: output,
		Handle: decision.OutputHandle,
	}, nil
}
