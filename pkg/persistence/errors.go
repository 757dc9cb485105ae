package persistence

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/google/uuid"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidWorkflowID indicates an identifier no backend can store.
	ErrInvalidWorkflowID = errors.New("invalid workflow id")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "WorkflowByID", "SaveWorkflow")
	WorkflowID string // Workflow ID if applicable
	Err        error  // Underlying error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// PrepareForSave assigns an id to new documents and stamps timestamps at the
// microsecond precision every backend can store.
func PrepareForSave(workflow *models.WorkflowDocument) error {
	now := time.Now().UTC().Truncate(time.Microsecond)

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.Forest.Nodes == nil {
		workflow.Forest = models.NewForest()
	}

	return nil
}

// SortByUpdatedAt orders documents most recently updated first.
func SortByUpdatedAt(workflows []*models.WorkflowDocument) {
	slices.SortStableFunc(workflows, func(a, b *models.WorkflowDocument) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
