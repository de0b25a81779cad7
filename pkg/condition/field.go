package condition

import (
	"encoding/json"
	"strconv"
	"strings"
)

// GetFieldValue resolves a dot-separated path with optional bracket index
// segments against root: "messages[0].text" and "messages.0.text" are
// equivalent. When an intermediate value is a JSON-encoded string (possibly
// fenced in a markdown code block) it is parsed once and resolution
// continues into the parsed structure. The second return is false when any
// segment is unresolvable; the function never errors.
func GetFieldValue(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}

	current := root

	for _, segment := range splitPath(path) {
		if current == nil {
			return nil, false
		}

		// A JSON payload stored as a string is still addressable.
		if text, ok := current.(string); ok {
			parsed, ok := parseEmbeddedJSON(text)
			if !ok {
				return nil, false
			}

			current = parsed
		}

		switch value := current.(type) {
		case map[string]any:
			next, ok := value[segment]
			if !ok {
				return nil, false
			}

			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(value) {
				return nil, false
			}

			current = value[index]
		default:
			return nil, false
		}
	}

	return current, true
}

// splitPath tokenizes "a.b[1].c" into ["a", "b", "1", "c"].
func splitPath(path string) []string {
	var segments []string

	for _, part := range strings.Split(path, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					segments = append(segments, part)
				}

				break
			}

			if open > 0 {
				segments = append(segments, part[:open])
			}

			close := strings.IndexByte(part[open:], ']')
			if close < 0 {
				// Unterminated bracket, treat the rest as a literal segment.
				segments = append(segments, part[open+1:])

				break
			}

			segments = append(segments, part[open+1:open+close])
			part = part[open+close+1:]
		}
	}

	return segments
}

// parseEmbeddedJSON parses a JSON document out of a string, tolerating a
// surrounding markdown code fence.
func parseEmbeddedJSON(text string) (any, bool) {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, false
	}

	return parsed, true
}
