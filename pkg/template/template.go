// Package template provides templating for dynamic node configuration.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/reporunner/reporunner/pkg/models"
)

// RenderWithContext renders a configuration value against the execution
// context and the node's aggregated input.
func RenderWithContext(input string, ec *models.ExecutionContext, nodeInput map[string]any) (any, error) {
	data := map[string]any{
		"input":        nodeInput,
		"variables":    ec.Variables,
		"trigger_data": ec.TriggerData,
		"env":          getEnvVars(),
		"execution": map[string]any{
			"id":          ec.ExecutionID,
			"workflow_id": ec.WorkflowID,
		},
	}

	return Render(input, data)
}

// Render executes templateStr against data and coerces the result: JSON
// documents, numbers, and booleans come back typed, everything else as a
// string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}

				num := make([]byte, 1)
				if _, err := rand.Read(num); err != nil {
					return 0
				}

				return int(num[0]) % max
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString is Render restricted to string results.
func RenderString(templateStr string, ec *models.ExecutionContext, nodeInput map[string]any) (string, error) {
	result, err := RenderWithContext(templateStr, ec, nodeInput)
	if err != nil {
		return "", err
	}

	if s, ok := result.(string); ok {
		return s, nil
	}

	return fmt.Sprintf("%v", result), nil
}

func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
