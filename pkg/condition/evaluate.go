// Package condition provides pure field extraction and operator evaluation
// used by condition nodes to pick an outgoing edge.
package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator names accepted by Evaluate.
const (
	OpEquals        = "equals"
	OpNotEquals     = "not_equals"
	OpContains      = "contains"
	OpNotContains   = "not_contains"
	OpStartsWith    = "starts_with"
	OpEndsWith      = "ends_with"
	OpGreater       = "greater"
	OpGreaterEqual  = "greater_equal"
	OpLess          = "less"
	OpLessEqual     = "less_equal"
	OpBetween       = "between"
	OpIsEmpty       = "is_empty"
	OpIsNotEmpty    = "is_not_empty"
	OpLengthEquals  = "length_equals"
	OpLengthGreater = "length_greater"
	OpIsTrue        = "is_true"
	OpIsFalse       = "is_false"
	OpIsNull        = "is_null"
	OpRegex         = "regex"
)

// Evaluate applies operator to (fieldValue, compareValue) and returns the
// boolean outcome. It is pure and total over the operator set: identical
// inputs always yield the same result, unknown operators yield false, and
// nothing panics. A nil fieldValue satisfies only is_empty/is_null (true)
// and is_not_empty (false); every other operator sees it as false.
func Evaluate(fieldValue any, operator string, compareValue any) bool {
	if fieldValue == nil {
		switch operator {
		case OpIsEmpty, OpIsNull:
			return true
		default:
			return false
		}
	}

	switch operator {
	case OpEquals:
		return looseEquals(fieldValue, compareValue)
	case OpNotEquals:
		return !looseEquals(fieldValue, compareValue)
	case OpContains:
		return contains(fieldValue, compareValue)
	case OpNotContains:
		return !contains(fieldValue, compareValue)
	case OpStartsWith:
		return strings.HasPrefix(stringify(fieldValue), stringify(compareValue))
	case OpEndsWith:
		return strings.HasSuffix(stringify(fieldValue), stringify(compareValue))
	case OpGreater:
		return compareNumbers(fieldValue, compareValue, func(a, b float64) bool { return a > b })
	case OpGreaterEqual:
		return compareNumbers(fieldValue, compareValue, func(a, b float64) bool { return a >= b })
	case OpLess:
		return compareNumbers(fieldValue, compareValue, func(a, b float64) bool { return a < b })
	case OpLessEqual:
		return compareNumbers(fieldValue, compareValue, func(a, b float64) bool { return a <= b })
	case OpBetween:
		return between(fieldValue, compareValue)
	case OpIsEmpty:
		return isEmpty(fieldValue)
	case OpIsNotEmpty:
		return !isEmpty(fieldValue)
	case OpLengthEquals:
		return lengthCompare(fieldValue, compareValue, func(a, b int) bool { return a == b })
	case OpLengthGreater:
		return lengthCompare(fieldValue, compareValue, func(a, b int) bool { return a > b })
	case OpIsTrue:
		return isTruthyBool(fieldValue)
	case OpIsFalse:
		b, ok := asBool(fieldValue)

		return ok && !b
	case OpIsNull:
		return false // non-nil by the guard above
	case OpRegex:
		return matchRegex(fieldValue, compareValue)
	default:
		return false
	}
}

// looseEquals compares after normalizing: numbers compare numerically,
// everything else by string form. Mirrors the tolerant matching the rest of
// the rule semantics use.
func looseEquals(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)

	if aok && bok {
		return an == bn
	}

	return stringify(a) == stringify(b)
}

// contains branches on the field value's shape: ordered sequences get a
// membership test, everything else a substring test on the string form.
func contains(fieldValue, compareValue any) bool {
	if list, ok := fieldValue.([]any); ok {
		for _, item := range list {
			if looseEquals(item, compareValue) {
				return true
			}
		}

		return false
	}

	return strings.Contains(stringify(fieldValue), stringify(compareValue))
}

func compareNumbers(a, b any, cmp func(a, b float64) bool) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)

	if !aok || !bok {
		return false
	}

	return cmp(an, bn)
}

// between accepts a two-element list or a "min,max" string as the bound
// pair; bounds are inclusive.
func between(fieldValue, compareValue any) bool {
	value, ok := toNumber(fieldValue)
	if !ok {
		return false
	}

	var low, high any

	switch bounds := compareValue.(type) {
	case []any:
		if len(bounds) != 2 {
			return false
		}

		low, high = bounds[0], bounds[1]
	case string:
		parts := strings.SplitN(bounds, ",", 2)
		if len(parts) != 2 {
			return false
		}

		low, high = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	default:
		return false
	}

	lowN, lowOK := toNumber(low)
	highN, highOK := toNumber(high)

	if !lowOK || !highOK {
		return false
	}

	return value >= lowN && value <= highN
}

func isEmpty(v any) bool {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value) == ""
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	default:
		return false
	}
}

func lengthCompare(fieldValue, compareValue any, cmp func(a, b int) bool) bool {
	length, ok := lengthOf(fieldValue)
	if !ok {
		return false
	}

	expected, ok := toNumber(compareValue)
	if !ok {
		return false
	}

	return cmp(length, int(expected))
}

func lengthOf(v any) (int, bool) {
	switch value := v.(type) {
	case string:
		return len(value), true
	case []any:
		return len(value), true
	case map[string]any:
		return len(value), true
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	switch value := v.(type) {
	case bool:
		return value, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return false, false
		}

		return parsed, true
	default:
		return false, false
	}
}

func isTruthyBool(v any) bool {
	b, ok := asBool(v)

	return ok && b
}

// matchRegex accepts either a bare pattern or a /pattern/flags literal.
// Supported flags: i, m, s (mapped to Go inline flags); a trailing g is
// tolerated and ignored. Invalid patterns evaluate to false.
func matchRegex(fieldValue, compareValue any) bool {
	pattern := stringify(compareValue)

	if strings.HasPrefix(pattern, "/") {
		if end := strings.LastIndex(pattern, "/"); end > 0 {
			flags := pattern[end+1:]
			pattern = pattern[1:end]

			var inline string

			for _, flag := range flags {
				switch flag {
				case 'i', 'm', 's':
					inline += string(flag)
				}
			}

			if inline != "" {
				pattern = "(?" + inline + ")" + pattern
			}
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	return re.MatchString(stringify(fieldValue))
}

// toNumber coerces a value the way a loosely typed rule author expects:
// numeric types pass through, booleans become 0/1, and strings are parsed.
// Anything else fails the coercion.
func toNumber(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case bool:
		if value {
			return 1, true
		}

		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
