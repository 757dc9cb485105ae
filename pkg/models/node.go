// Package models defines the core domain models for text-processing workflow trees
package models

// NodeField names the editable fields of a WorkflowNode.
type NodeField string

const (
	FieldAction       NodeField = "action"
	FieldIsOutput     NodeField = "is_output"
	FieldCustomPrompt NodeField = "custom_prompt"
)

// Valid reports whether f names an editable node field.
func (f NodeField) Valid() bool {
	switch f {
	case FieldAction, FieldIsOutput, FieldCustomPrompt:
		return true
	default:
		return false
	}
}

// WorkflowNode is one operation step of a pipeline. It is stored in a Forest
// arena and references its children by UUID; containment is the parent relation.
type WorkflowNode struct {
	UUID         string           `json:"uuid"                    validate:"required"`
	Action       ActionDefinition `json:"action"`
	IsOutput     bool             `json:"is_output"`
	CustomPrompt string           `json:"custom_prompt,omitempty"`
	Children     []string         `json:"children"`
}

// HasCustomPrompt reports whether the node overrides the action's default instruction.
func (n *WorkflowNode) HasCustomPrompt() bool {
	return n.CustomPrompt != ""
}

// Clone returns a copy of the node that shares no mutable state with n.
func (n *WorkflowNode) Clone() *WorkflowNode {
	c := *n
	c.Children = append(make([]string, 0, len(n.Children)), n.Children...)

	return &c
}

// TreeNode is the nested read model of a WorkflowNode, used for display and export.
type TreeNode struct {
	UUID         string           `json:"uuid"`
	Action       ActionDefinition `json:"action"`
	IsOutput     bool             `json:"is_output"`
	CustomPrompt string           `json:"custom_prompt,omitempty"`
	Children     []*TreeNode      `json:"children"`
}
