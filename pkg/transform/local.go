package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/registry"
)

const blockElements = "p, div, li, h1, h2, h3, h4, h5, h6, tr, blockquote, pre, section, article"

// Local runs the actions that need no remote service.
type Local struct {
	ops map[string]func(string) (string, error)
}

func NewLocal() *Local {
	return &Local{
		ops: map[string]func(string) (string, error){
			registry.ActionClean: Clean,
			registry.ActionUppercase: func(s string) (string, error) {
				return strings.ToUpper(s), nil
			},
			registry.ActionLowercase: func(s string) (string, error) {
				return strings.ToLower(s), nil
			},
			registry.ActionTrim: func(s string) (string, error) {
				return trimLines(s), nil
			},
		},
	}
}

// Supports reports whether the action runs locally.
func (l *Local) Supports(actionID string) bool {
	_, ok := l.ops[actionID]

	return ok
}

func (l *Local) Apply(_ context.Context, text string, action models.ActionDefinition, _ string) (string, error) {
	op, ok := l.ops[action.ID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAction, action.ID)
	}

	return op(text)
}

// Clean strips markup, drops script and style content, and collapses
// whitespace while keeping block boundaries as line breaks.
func Clean(input string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).AfterHtml("\n")

	return collapseWhitespace(doc.Text()), nil
}

// collapseWhitespace squeezes runs of spaces inside lines and runs of blank
// lines into one.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}

			blank = true

			continue
		}

		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
