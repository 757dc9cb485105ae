package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/scriptorium/pkg/eventbus"
	"github.com/dukex/scriptorium/pkg/events"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
}

type Option func(*Workflow)

// WithPublisher announces saved and deleted documents on the given publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(logger *slog.Logger, persistence persistence.Persistence, opts ...Option) *Workflow {
	w := &Workflow{
		logger:      logger.With("module", "workflow_service"),
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored document, most recently updated first.
func (w *Workflow) List(ctx context.Context) ([]*models.WorkflowDocument, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	persistence.SortByUpdatedAt(workflows)

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	return w.persistence.WorkflowByID(ctx, id)
}

// Create stores a new document. Any id or timestamps on the input are replaced.
func (w *Workflow) Create(ctx context.Context, workflow *models.WorkflowDocument) (*models.WorkflowDocument, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	workflow.ID = ""
	workflow.CreatedAt = time.Time{}
	workflow.UpdatedAt = time.Time{}

	if err := w.store(ctx, "Create", workflow, true); err != nil {
		return nil, err
	}

	return workflow, nil
}

// UpdateWorkflowRequest carries the document metadata a PATCH may change.
type UpdateWorkflowRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4096"`
}

// Update changes the name and description of an existing document.
func (w *Workflow) Update(ctx context.Context, workflowID string, req UpdateWorkflowRequest) (*models.WorkflowDocument, error) {
	if err := w.validate.Struct(req); err != nil {
		return nil, NewValidationError("Update", "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	existing, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if err := w.store(ctx, "Update", existing, false); err != nil {
		return nil, err
	}

	return existing, nil
}

// Save stores a document as edited in memory. Documents without an id are created.
func (w *Workflow) Save(ctx context.Context, workflow *models.WorkflowDocument) error {
	if workflow == nil {
		return ErrWorkflowNil
	}

	created := workflow.ID == ""

	if !created {
		if _, err := w.persistence.WorkflowByID(ctx, workflow.ID); err != nil {
			return err
		}
	}

	return w.store(ctx, "Save", workflow, created)
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	err := w.persistence.DeleteWorkflow(ctx, workflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return err
		}

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.publish(ctx, workflowID, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, workflowID),
	})

	return nil
}

// Duplicate stores a copy of a document whose nodes all carry fresh uuids.
func (w *Workflow) Duplicate(ctx context.Context, workflowID string) (*models.WorkflowDocument, error) {
	source, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	duplicate := models.NewWorkflowDocument(source.Name+" (copy)", source.Description)
	duplicate.Forest = tree.CloneWithFreshIDs(&source.Forest)

	if err := w.store(ctx, "Duplicate", duplicate, true); err != nil {
		return nil, err
	}

	return duplicate, nil
}

func (w *Workflow) store(ctx context.Context, op string, workflow *models.WorkflowDocument, created bool) error {
	if err := w.validateDocument(op, workflow); err != nil {
		return err
	}

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow saved", "workflow_id", workflow.ID, "op", op, "nodes", workflow.Forest.Len())

	w.publish(ctx, workflow.ID, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, workflow.ID),
		Name:      workflow.Name,
		NodeCount: workflow.Forest.Len(),
		Created:   created,
	})

	return nil
}

func (w *Workflow) validateDocument(op string, workflow *models.WorkflowDocument) error {
	if err := w.validate.Struct(workflow); err != nil {
		return NewValidationError(op, "INVALID_DOCUMENT", err.Error(), ErrInvalidDocument)
	}

	if workflow.Forest.Nodes == nil {
		workflow.Forest = models.NewForest()
	}

	if err := tree.Validate(&workflow.Forest); err != nil {
		return NewValidationError(op, "INVALID_FOREST", err.Error(), fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	return nil
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish workflow event", "event_type", event.GetType(), "error", err)
	}
}
