package models

import "time"

// Forest is an ordered collection of workflow trees stored as an arena:
// every node lives in Nodes keyed by UUID and Roots lists the top-level trees.
type Forest struct {
	Roots []string                 `json:"roots"`
	Nodes map[string]*WorkflowNode `json:"nodes"`
}

// NewForest returns an empty forest.
func NewForest() Forest {
	return Forest{
		Roots: []string{},
		Nodes: make(map[string]*WorkflowNode),
	}
}

// Len returns the number of nodes in the forest.
func (f Forest) Len() int {
	return len(f.Nodes)
}

// IsEmpty reports whether the forest has no trees.
func (f Forest) IsEmpty() bool {
	return len(f.Roots) == 0
}

// WorkflowDocument is one saved pipeline definition.
type WorkflowDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"        validate:"max=255"`
	Description string    `json:"description" validate:"max=4096"`
	Forest      Forest    `json:"forest"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewWorkflowDocument returns an empty, unsaved document.
func NewWorkflowDocument(name, description string) *WorkflowDocument {
	return &WorkflowDocument{
		Name:        name,
		Description: description,
		Forest:      NewForest(),
	}
}

// WorkflowExport is the portable nested representation of a document.
type WorkflowExport struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Roots       []*TreeNode `json:"roots"`
}
