// Package template renders the instructions sent to the text transformation service.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dukex/scriptorium/pkg/models"
)

// PromptData is the value prompt templates are executed against.
type PromptData struct {
	Text         string
	Action       models.ActionDefinition
	CustomPrompt string
}

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"truncate": func(n int, s string) string {
		runes := []rune(s)
		if n < 0 || len(runes) <= n {
			return s
		}

		return string(runes[:n])
	},
}

func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.New("prompt").Funcs(funcs).Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// NeedsTemplating reports whether s contains template actions.
func NeedsTemplating(s string) bool {
	return strings.Contains(s, "{{")
}

// Instruction returns the instruction for one node: the custom prompt when
// set, otherwise the action's default prompt, otherwise its description.
func Instruction(action models.ActionDefinition, customPrompt, text string) (string, error) {
	source := customPrompt
	if source == "" {
		source = action.Prompt
	}

	if source == "" {
		source = action.Description
	}

	if !NeedsTemplating(source) {
		return strings.TrimSpace(source), nil
	}

	return Render(source, PromptData{Text: text, Action: action, CustomPrompt: customPrompt})
}
