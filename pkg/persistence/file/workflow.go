package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/persistence"
)

// WorkflowRepository stores one JSON file per document under root/workflows.
type WorkflowRepository struct {
	root string

	mu sync.RWMutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(op, id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", persistence.NewWorkflowError(op, id, persistence.ErrInvalidWorkflowID)
	}

	return filepath.Join(wr.dir(), id+".json"), nil
}

// GetAll returns every stored document, most recently updated first.
func (wr *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDocument, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.WorkflowDocument, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := wr.read("GetAll", strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	persistence.SortByUpdatedAt(workflows)

	return workflows, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.WorkflowDocument, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.read("GetByID", workflowID)
}

func (wr *WorkflowRepository) read(op, workflowID string) (*models.WorkflowDocument, error) {
	filePath, err := wr.path(op, workflowID)
	if err != nil {
		return nil, err
	}

	body, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError(op, workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError(op, workflowID, err)
	}

	var workflow models.WorkflowDocument

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, persistence.NewWorkflowError(op, workflowID, fmt.Errorf("failed to unmarshal: %w", err))
	}

	return &workflow, nil
}

// Save writes the document atomically through a temporary file.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.WorkflowDocument) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := persistence.PrepareForSave(workflow); err != nil {
		return err
	}

	filePath, err := wr.path("Save", workflow.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(wr.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal: %w", err))
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)

		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow by its ID.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	filePath, err := wr.path("Delete", id)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
