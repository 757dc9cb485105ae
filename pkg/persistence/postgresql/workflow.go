package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

type scanner interface {
	Scan(dest ...any) error
}

// GetAll returns all workflows from the database.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDocument, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , forest
		  , created_at
		  , updated_at
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.WorkflowDocument, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	query := `
		SELECT
			id
		  , name
		  , description
		  , forest
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to scan workflow: %w", err))
	}

	return workflow, nil
}

// Save inserts the workflow or replaces the stored version of it.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDocument) error {
	if workflow.ID != "" {
		if _, err := uuid.Parse(workflow.ID); err != nil {
			return persistence.NewWorkflowError("Save", workflow.ID, persistence.ErrInvalidWorkflowID)
		}
	}

	if err := persistence.PrepareForSave(workflow); err != nil {
		return err
	}

	forest, err := json.Marshal(workflow.Forest)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal forest: %w", err))
	}

	query := `
		INSERT INTO workflows (id, name, description, forest, node_count, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , forest = EXCLUDED.forest
		  , node_count = EXCLUDED.node_count
		  , updated_at = EXCLUDED.updated_at
		  , deleted_at = NULL
		RETURNING created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		forest,
		workflow.Forest.Len(),
		workflow.CreatedAt,
		workflow.UpdatedAt,
	).Scan(&workflow.CreatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to upsert workflow: %w", err))
	}

	workflow.CreatedAt = workflow.CreatedAt.UTC()

	return nil
}

// Delete soft deletes a workflow.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, fmt.Errorf("failed to delete workflow: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) scanWorkflow(row scanner) (*models.WorkflowDocument, error) {
	var (
		workflow models.WorkflowDocument
		forest   []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&forest,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Forest = models.NewForest()

	if err := json.Unmarshal(forest, &workflow.Forest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal forest of workflow %s: %w", workflow.ID, err)
	}

	workflow.CreatedAt = workflow.CreatedAt.UTC()
	workflow.UpdatedAt = workflow.UpdatedAt.UTC()

	return &workflow, nil
}
