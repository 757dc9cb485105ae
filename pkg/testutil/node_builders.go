// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/google/uuid"
)

// CreateTestAction creates an ActionDefinition with default values that can be overridden.
func CreateTestAction(id string, overrides ...func(*models.ActionDefinition)) models.ActionDefinition {
	action := models.ActionDefinition{
		ID:          id,
		Label:       id,
		Category:    models.CategoryProcessing,
		Description: "test action " + id,
	}

	for _, override := range overrides {
		override(&action)
	}

	return action
}

// WithCategory sets the action category.
func WithCategory(category models.Category) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Category = category
	}
}

// WithPrompt sets the action's default prompt.
func WithPrompt(prompt string) func(*models.ActionDefinition) {
	return func(a *models.ActionDefinition) {
		a.Prompt = prompt
	}
}

// CreateChain builds a forest holding a single path of nodes, one per action
// id, and returns it with the node uuids in path order.
func CreateChain(actionIDs ...string) (models.Forest, []string) {
	forest := models.NewForest()
	ids := make([]string, 0, len(actionIDs))

	for i, id := range actionIDs {
		var (
			node models.WorkflowNode
			err  error
		)

		if i == 0 {
			node, err = tree.InsertRoot(&forest, CreateTestAction(id))
		} else {
			node, err = tree.InsertChild(&forest, ids[i-1], CreateTestAction(id))
		}

		if err != nil {
			panic(err)
		}

		ids = append(ids, node.UUID)
	}

	return forest, ids
}

// CreateTestDocument creates a WorkflowDocument with default values that can be overridden.
func CreateTestDocument(overrides ...func(*models.WorkflowDocument)) *models.WorkflowDocument {
	now := time.Now().UTC().Truncate(time.Second)
	forest, _ := CreateChain("clean", "summary_exec")

	doc := &models.WorkflowDocument{
		ID:          uuid.NewString(),
		Name:        "Test Pipeline",
		Description: "pipeline used in tests",
		Forest:      forest,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(doc)
	}

	return doc
}

// WithDocumentName sets the document name.
func WithDocumentName(name string) func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		d.Name = name
	}
}

// WithForest sets the document forest.
func WithForest(forest models.Forest) func(*models.WorkflowDocument) {
	return func(d *models.WorkflowDocument) {
		d.Forest = forest
	}
}

// UpperApply uppercases the text and appends "::" plus the action id.
func UpperApply(_ context.Context, text string, action models.ActionDefinition, _ string) (string, error) {
	return strings.ToUpper(text) + "::" + action.ID, nil
}
