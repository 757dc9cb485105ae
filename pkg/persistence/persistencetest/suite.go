// Package persistencetest holds the behaviour every persistence backend must share.
package persistencetest

import (
	"context"
	"testing"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocument(t *testing.T, name string) *models.WorkflowDocument {
	t.Helper()

	doc := models.NewWorkflowDocument(name, "description of "+name)

	root, err := tree.InsertRoot(&doc.Forest, models.ActionDefinition{ID: "clean", Label: "Clean", Category: models.CategoryProcessing})
	require.NoError(t, err)

	_, err = tree.InsertChild(&doc.Forest, root.UUID,
		models.ActionDefinition{ID: "summary_exec", Label: "Summary", Category: models.CategoryAnalysis, Prompt: "Summarise"},
		tree.WithOutput(true), tree.WithCustomPrompt("Two sentences"))
	require.NoError(t, err)

	return doc
}

// Run exercises p against the shared persistence contract. p must start empty.
func Run(t *testing.T, p persistence.Persistence) {
	t.Helper()

	ctx := context.Background()

	t.Run("health check", func(t *testing.T) {
		require.NoError(t, p.HealthCheck(ctx))
	})

	t.Run("save and load round trip", func(t *testing.T) {
		doc := newDocument(t, "round trip")

		require.NoError(t, p.SaveWorkflow(ctx, doc))
		require.NotEmpty(t, doc.ID)
		assert.False(t, doc.CreatedAt.IsZero())

		loaded, err := p.WorkflowByID(ctx, doc.ID)
		require.NoError(t, err)

		assert.Equal(t, doc.Name, loaded.Name)
		assert.Equal(t, doc.Description, loaded.Description)
		assert.Equal(t, doc.Forest.Roots, loaded.Forest.Roots)
		assert.Equal(t, tree.Nest(&doc.Forest), tree.Nest(&loaded.Forest))
		assert.NoError(t, tree.Validate(&loaded.Forest))
		assert.WithinDuration(t, doc.UpdatedAt, loaded.UpdatedAt, 0)
	})

	t.Run("save updates existing document", func(t *testing.T) {
		doc := newDocument(t, "before")
		require.NoError(t, p.SaveWorkflow(ctx, doc))

		created := doc.CreatedAt
		doc.Name = "after"
		_, err := tree.DeleteNode(&doc.Forest, doc.Forest.Roots[0])
		require.NoError(t, err)

		require.NoError(t, p.SaveWorkflow(ctx, doc))

		loaded, err := p.WorkflowByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", loaded.Name)
		assert.True(t, loaded.Forest.IsEmpty())
		assert.WithinDuration(t, created, loaded.CreatedAt, 0)
	})

	t.Run("list contains saved documents", func(t *testing.T) {
		doc := newDocument(t, "listed")
		require.NoError(t, p.SaveWorkflow(ctx, doc))

		workflows, err := p.Workflows(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(workflows))
		for _, wf := range workflows {
			ids = append(ids, wf.ID)
		}

		assert.Contains(t, ids, doc.ID)
		assert.Equal(t, doc.ID, workflows[0].ID)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := p.WorkflowByID(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		doc := newDocument(t, "deleted")
		require.NoError(t, p.SaveWorkflow(ctx, doc))

		require.NoError(t, p.DeleteWorkflow(ctx, doc.ID))

		_, err := p.WorkflowByID(ctx, doc.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))

		err = p.DeleteWorkflow(ctx, doc.ID)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})
}
