// Package transform implements the text transformation collaborator the
// pipeline executor hands every visited node to.
package transform

import (
	"context"
	"errors"

	"github.com/dukex/scriptorium/pkg/models"
)

var (
	// ErrUnsupportedAction indicates an action no configured applier can run.
	ErrUnsupportedAction = errors.New("action not supported")

	// ErrEmptyResult indicates the transformation service answered without text.
	ErrEmptyResult = errors.New("transformation returned no text")
)

// Applier transforms text according to an action and an optional custom prompt.
type Applier interface {
	Apply(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error)
}

// ApplyFunc adapts a function to the Applier interface.
type ApplyFunc func(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error)

func (f ApplyFunc) Apply(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error) {
	return f(ctx, text, action, customPrompt)
}
