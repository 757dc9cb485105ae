package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed workflow_schema.json
var workflowSchema []byte

// Export returns the portable nested form of a stored document.
func (w *Workflow) Export(ctx context.Context, workflowID string) (*models.WorkflowExport, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return &models.WorkflowExport{
		ID:          workflow.ID,
		Name:        workflow.Name,
		Description: workflow.Description,
		UpdatedAt:   workflow.UpdatedAt,
		Roots:       tree.Nest(&workflow.Forest),
	}, nil
}

// Import validates an exported document and stores it as a new workflow.
// Node uuids are kept when present and unique; missing ones are generated.
func (w *Workflow) Import(ctx context.Context, data []byte) (*models.WorkflowDocument, error) {
	if err := validateJSONSchema(data); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrInvalidDocument)
	}

	var export models.WorkflowExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, NewValidationError("Import", "INVALID_DOCUMENT", err.Error(), ErrInvalidDocument)
	}

	forest, err := tree.Flatten(export.Roots)
	if err != nil {
		return nil, NewValidationError("Import", "INVALID_FOREST", err.Error(), fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	workflow := models.NewWorkflowDocument(export.Name, export.Description)
	workflow.Forest = forest

	if err := w.store(ctx, "Import", workflow, true); err != nil {
		return nil, err
	}

	return workflow, nil
}

func validateJSONSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(workflowSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}
