// Package transform provides the data transformation node.
package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reporunner/reporunner/pkg/models"
	"github.com/reporunner/reporunner/pkg/protocol"
	"github.com/reporunner/reporunner/pkg/template"
)

// Supported operations.
const (
	OpSet       = "set"
	OpAppend    = "append"
	OpUppercase = "uppercase"
	OpLowercase = "lowercase"
)

// Operation is one transformation step applied in order.
type Operation struct {
	Op    string
	Field string
	Value any
}

// Executor applies an ordered list of operations to a shallow copy of the
// node's input. The input itself is never mutated.
type Executor struct {
	id         string
	operations []Operation
}

// NewExecutor parses the operations list from config.
func NewExecutor(nodeID string, config map[string]any) (*Executor, error) {
	raw, ok := config["operations"].([]any)
	if !ok {
		return nil, errors.New("missing required field 'operations'")
	}

	operations := make([]Operation, 0, len(raw))

	for i, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("operation %d: expected object, got %T", i, item)
		}

		op, _ := entry["operation"].(string)
		field, _ := entry["field"].(string)

		if field == "" {
			return nil, fmt.Errorf("operation %d: missing required field 'field'", i)
		}

		switch op {
		case OpSet, OpAppend:
			if _, present := entry["value"]; !present {
				return nil, fmt.Errorf("operation %d: %q requires a 'value'", i, op)
			}
		case OpUppercase, OpLowercase:
		default:
			return nil, fmt.Errorf("operation %d: unknown operation %q", i, op)
		}

		operations = append(operations, Operation{
			Op:    op,
			Field: field,
			Value: entry["value"],
		})
	}

	return &Executor{id: nodeID, operations: operations}, nil
}

// Execute applies the operations to a copy of input and returns the result.
func (e *Executor) Execute(_ context.Context, ec *models.ExecutionContext, input map[string]any) (*protocol.Result, error) {
	output := make(map[string]any, len(input)+len(e.operations))
	for k, v := range input {
		output[k] = v
	}

	for i, op := range e.operations {
		if err := applyOperation(output, op, ec, input); err != nil {
			return nil, protocol.NewNodeExecutionError(e.id, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Field, err))
		}
	}

	return &protocol.Result{Output: output}, nil
}

func applyOperation(output map[string]any, op Operation, ec *models.ExecutionContext, input map[string]any) error {
	switch op.Op {
	case OpSet:
		value, err := renderValue(op.Value, ec, input)
		if err != nil {
			return err
		}

		output[op.Field] = value

	case OpAppend:
		value, err := renderValue(op.Value, ec, input)
		if err != nil {
			return err
		}

		switch existing := output[op.Field].(type) {
		case nil:
			output[op.Field] = []any{value}
		case []any:
			appended := make([]any, 0, len(existing)+1)
			appended = append(appended, existing...)
			output[op.Field] = append(appended, value)
		case string:
			output[op.Field] = existing + stringify(value)
		default:
			output[op.Field] = []any{existing, value}
		}

	case OpUppercase:
		s, ok := output[op.Field].(string)
		if !ok {
			return fmt.Errorf("field %q is not a string", op.Field)
		}

		output[op.Field] = strings.ToUpper(s)

	case OpLowercase:
		s, ok := output[op.Field].(string)
		if !ok {
			return fmt.Errorf("field %q is not a string", op.Field)
		}

		output[op.Field] = strings.ToLower(s)
	}

	return nil
}

// renderValue runs string values through the template engine so operations
// can reference input, variables, and trigger data.
func renderValue(value any, ec *models.ExecutionContext, input map[string]any) (any, error) {
	s, ok := value.(string)
	if !ok || !strings.Contains(s, "{{") {
		return value, nil
	}

	return template.RenderWithContext(s, ec, input)
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}
