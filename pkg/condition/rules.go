package condition

import (
	"errors"
	"fmt"
)

// Rule is one ordered entry in a condition node's rule list. Field is a
// path into the node input, resolved with GetFieldValue.
type Rule struct {
	Field        string `json:"field"`
	Operator     string `json:"operator"`
	Value        any    `json:"value,omitempty"`
	OutputHandle string `json:"output_handle"`
	Enabled      *bool  `json:"enabled,omitempty"` // nil means enabled
}

// Decision is the outcome of evaluating a rule list.
type Decision struct {
	MatchedRule  *Rule
	OutputHandle string
}

// ErrMalformedRule indicates a rule definition the evaluator cannot use.
var ErrMalformedRule = errors.New("malformed condition rule")

// EvaluateRules walks rules in declaration order and returns the first
// match. Disabled rules are skipped entirely. When no rule matches, the
// decision carries defaultHandle and a nil MatchedRule. "No match" is never
// an error; only malformed rule definitions are.
func EvaluateRules(input map[string]any, rules []Rule, defaultHandle string) (*Decision, error) {
	for i := range rules {
		rule := &rules[i]

		if rule.Enabled != nil && !*rule.Enabled {
			continue
		}

		if rule.Operator == "" {
			return nil, fmt.Errorf("%w: rule %d has no operator", ErrMalformedRule, i)
		}

		if rule.OutputHandle == "" {
			return nil, fmt.Errorf("%w: rule %d has no output handle", ErrMalformedRule, i)
		}

		fieldValue, _ := GetFieldValue(mapToAny(input), rule.Field)

		if Evaluate(fieldValue, rule.Operator, rule.Value) {
			return &Decision{MatchedRule: rule, OutputHandle: rule.OutputHandle}, nil
		}
	}

	return &Decision{OutputHandle: defaultHandle}, nil
}

// ParseRules decodes a rule list from a node configuration value.
func ParseRules(raw any) ([]Rule, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: rules must be a list, got %T", ErrMalformedRule, raw)
	}

	rules := make([]Rule, 0, len(items))

	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: rule %d must be an object, got %T", ErrMalformedRule, i, item)
		}

		rule := Rule{Value: entry["value"]}

		if field, ok := entry["field"].(string); ok {
			rule.Field = field
		}

		if operator, ok := entry["operator"].(string); ok {
			rule.Operator = operator
		}

		if handle, ok := entry["output_handle"].(string); ok {
			rule.OutputHandle = handle
		}

		if enabled, ok := entry["enabled"].(bool); ok {
			rule.Enabled = &enabled
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func mapToAny(input map[string]any) any {
	if input == nil {
		return nil
	}

	return input
}
