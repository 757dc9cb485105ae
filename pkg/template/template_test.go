package template

import (
	"testing"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	data := PromptData{
		Text:   "  hello world  ",
		Action: models.ActionDefinition{ID: "translate", Label: "Translate"},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"plain", "no template", "no template"},
		{"action label", "Run {{ .Action.Label }}", "Run Translate"},
		{"text functions", "{{ .Text | trim | upper }}", "HELLO WORLD"},
		{"truncate", "{{ truncate 5 (trim .Text) }}", "hello"},
		{"truncate shorter", "{{ truncate 50 .Action.ID }}", "translate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRender_Errors(t *testing.T) {
	_, err := Render("{{ .Text ", PromptData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")

	_, err = Render("{{ .missing }}", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}

func TestInstruction(t *testing.T) {
	action := models.ActionDefinition{
		ID:          "translate",
		Label:       "Translate",
		Description: "Translates the text",
		Prompt:      "Translate into English.",
	}

	tests := []struct {
		name         string
		action       models.ActionDefinition
		customPrompt string
		expected     string
	}{
		{"default prompt", action, "", "Translate into English."},
		{"custom prompt wins", action, "Translate into German.", "Translate into German."},
		{"templated custom prompt", action, "{{ .Action.Label }} {{ len .Text }} characters", "Translate 5 characters"},
		{"description fallback", models.ActionDefinition{ID: "x", Description: " Describe "}, "", "Describe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Instruction(tt.action, tt.customPrompt, "hello")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNeedsTemplating(t *testing.T) {
	assert.True(t, NeedsTemplating("{{ .Text }}"))
	assert.False(t, NeedsTemplating("plain"))
}
