// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"time"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/moogar0880/problems"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name        string             `json:"name"        validate:"required,max=255"`
	Description string             `json:"description" validate:"max=4096"`
	Roots       []*models.TreeNode `json:"roots,omitempty"`
}

// OpenSessionRequest opens an editor on a stored workflow, or on an empty one.
type OpenSessionRequest struct {
	WorkflowID string `json:"workflow_id,omitempty"`
}

type SelectRequest struct {
	UUID string `json:"uuid" validate:"required"`
}

type AddNodeRequest struct {
	ActionID string `json:"action_id" validate:"required"`
}

// UpdateNodeRequest sets one node field. Value is an action id for "action",
// a boolean for "is_output" and a string for "custom_prompt".
type UpdateNodeRequest struct {
	Field string `json:"field" validate:"required,oneof=action is_output custom_prompt"`
	Value any    `json:"value"`
}

type RenameSessionRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4096"`
}

type RunRequest struct {
	SeedText string `json:"seed_text" validate:"required"`
	From     string `json:"from,omitempty"`
}

// SessionResponse is the view-layer state of an editor session.
type SessionResponse struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id,omitempty"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Roots       []*models.TreeNode    `json:"roots"`
	Selection   string                `json:"selection,omitempty"`
	ActivePath  []models.WorkflowNode `json:"active_path"`
	Running     bool                  `json:"running"`
}

// RunResponse carries the run result, partial on failure, and the failure itself.
type RunResponse struct {
	Result *models.ExecutionResult `json:"result"`
	Error  *problems.Problem       `json:"error,omitempty"`
}
