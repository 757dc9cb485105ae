// Package tree implements the structural operations of a workflow forest.
//
// The forest is an arena (models.Forest): nodes are addressed only by uuid and
// reference their children by uuid. Every traversal uses an explicit stack so
// pathological depths cannot exhaust the goroutine stack. Mutations replace the
// touched node records instead of editing them, so nodes handed out earlier and
// nodes in unrelated subtrees keep their values.
package tree

import (
	"slices"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/google/uuid"
)

// NodeOption configures a node created by InsertRoot or InsertChild.
type NodeOption func(*models.WorkflowNode)

// WithOutput sets the isOutput flag of the new node.
func WithOutput(isOutput bool) NodeOption {
	return func(n *models.WorkflowNode) {
		n.IsOutput = isOutput
	}
}

// WithCustomPrompt sets the custom prompt of the new node.
func WithCustomPrompt(prompt string) NodeOption {
	return func(n *models.WorkflowNode) {
		n.CustomPrompt = prompt
	}
}

func ensureNodes(f *models.Forest) {
	if f.Nodes == nil {
		f.Nodes = make(map[string]*models.WorkflowNode)
	}
}

// lookup resolves a uuid. A nil record counts as missing.
func lookup(f *models.Forest, id string) (*models.WorkflowNode, bool) {
	node, ok := f.Nodes[id]

	return node, ok && node != nil
}

func newNode(f *models.Forest, action models.ActionDefinition, opts []NodeOption) *models.WorkflowNode {
	id := uuid.NewString()
	for _, exists := f.Nodes[id]; exists; _, exists = f.Nodes[id] {
		id = uuid.NewString()
	}

	node := &models.WorkflowNode{
		UUID:     id,
		Action:   action,
		Children: []string{},
	}

	for _, opt := range opts {
		opt(node)
	}

	return node
}

// InsertRoot appends a new top-level node. Only an empty forest accepts a root;
// otherwise the caller must attach the node under an explicit parent.
func InsertRoot(f *models.Forest, action models.ActionDefinition, opts ...NodeOption) (models.WorkflowNode, error) {
	if len(f.Roots) > 0 {
		return models.WorkflowNode{}, newStructuralError("InsertRoot", "", ErrSelectionRequired)
	}

	ensureNodes(f)

	node := newNode(f, action, opts)
	f.Nodes[node.UUID] = node
	f.Roots = append(slices.Clip(f.Roots), node.UUID)

	return *node.Clone(), nil
}

// InsertChild appends a new node to the children of parentUUID.
func InsertChild(f *models.Forest, parentUUID string, action models.ActionDefinition, opts ...NodeOption) (models.WorkflowNode, error) {
	parent, ok := lookup(f, parentUUID)
	if !ok {
		return models.WorkflowNode{}, newStructuralError("InsertChild", parentUUID, ErrNodeNotFound)
	}

	node := newNode(f, action, opts)

	updated := parent.Clone()
	updated.Children = append(updated.Children, node.UUID)

	f.Nodes[node.UUID] = node
	f.Nodes[parentUUID] = updated

	return *node.Clone(), nil
}

// DeleteNode removes targetUUID and its entire subtree. It returns the uuids
// removed, target first.
func DeleteNode(f *models.Forest, targetUUID string) ([]string, error) {
	if _, ok := lookup(f, targetUUID); !ok {
		return nil, newStructuralError("DeleteNode", targetUUID, ErrNodeNotFound)
	}

	removed := Descendants(f, targetUUID)

	if idx := slices.Index(f.Roots, targetUUID); idx >= 0 {
		f.Roots = slices.Delete(slices.Clone(f.Roots), idx, idx+1)
	} else if parentUUID, ok := parentOf(f, targetUUID); ok {
		parent := f.Nodes[parentUUID].Clone()
		parent.Children = slices.DeleteFunc(parent.Children, func(id string) bool {
			return id == targetUUID
		})
		f.Nodes[parentUUID] = parent
	}

	for _, id := range removed {
		delete(f.Nodes, id)
	}

	return removed, nil
}

// FindNode returns a copy of the node with the given uuid.
func FindNode(f *models.Forest, nodeUUID string) (models.WorkflowNode, bool) {
	node, ok := lookup(f, nodeUUID)
	if !ok {
		return models.WorkflowNode{}, false
	}

	return *node.Clone(), true
}

// PathTo returns the nodes from the root containing nodeUUID down to the node
// itself, inclusive at both ends.
func PathTo(f *models.Forest, nodeUUID string) ([]models.WorkflowNode, bool) {
	if _, ok := lookup(f, nodeUUID); !ok {
		return nil, false
	}

	parents := parentIndex(f)

	ids := []string{nodeUUID}
	for current := nodeUUID; ; {
		parent, ok := parents[current]
		if !ok {
			break
		}

		ids = append(ids, parent)
		current = parent
	}

	if !slices.Contains(f.Roots, ids[len(ids)-1]) {
		return nil, false
	}

	slices.Reverse(ids)

	path := make([]models.WorkflowNode, 0, len(ids))
	for _, id := range ids {
		path = append(path, *f.Nodes[id].Clone())
	}

	return path, true
}

// UpdateNodeField sets exactly one field of one node. Accepted value types are
// models.ActionDefinition for FieldAction, bool for FieldIsOutput and string for
// FieldCustomPrompt.
func UpdateNodeField(f *models.Forest, nodeUUID string, field models.NodeField, value any) error {
	node, ok := lookup(f, nodeUUID)
	if !ok {
		return newStructuralError("UpdateNodeField", nodeUUID, ErrNodeNotFound)
	}

	updated := node.Clone()

	switch field {
	case models.FieldAction:
		action, ok := value.(models.ActionDefinition)
		if !ok {
			return newStructuralError("UpdateNodeField", nodeUUID, ErrInvalidValue)
		}

		updated.Action = action
	case models.FieldIsOutput:
		isOutput, ok := value.(bool)
		if !ok {
			return newStructuralError("UpdateNodeField", nodeUUID, ErrInvalidValue)
		}

		updated.IsOutput = isOutput
	case models.FieldCustomPrompt:
		prompt, ok := value.(string)
		if !ok {
			return newStructuralError("UpdateNodeField", nodeUUID, ErrInvalidValue)
		}

		updated.CustomPrompt = prompt
	default:
		return newStructuralError("UpdateNodeField", nodeUUID, ErrInvalidField)
	}

	f.Nodes[nodeUUID] = updated

	return nil
}

// Walk visits every node reachable from the roots in depth-first pre-order,
// children in order. Returning false from fn stops the walk.
func Walk(f *models.Forest, fn func(node *models.WorkflowNode, depth int) bool) {
	type frame struct {
		id    string
		depth int
	}

	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: f.Roots[i]})
	}

	seen := make(map[string]struct{}, len(f.Nodes))

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, ok := lookup(f, top.id)
		if !ok {
			continue
		}

		if _, visited := seen[top.id]; visited {
			continue
		}

		seen[top.id] = struct{}{}

		if !fn(node, top.depth) {
			return
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: node.Children[i], depth: top.depth + 1})
		}
	}
}

// Descendants returns nodeUUID followed by every node of its subtree in pre-order.
func Descendants(f *models.Forest, nodeUUID string) []string {
	if _, ok := lookup(f, nodeUUID); !ok {
		return nil
	}

	ids := make([]string, 0)
	stack := []string{nodeUUID}
	seen := make(map[string]struct{})

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, visited := seen[id]; visited {
			continue
		}

		node, ok := lookup(f, id)
		if !ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}

	return ids
}

func parentIndex(f *models.Forest) map[string]string {
	parents := make(map[string]string, len(f.Nodes))

	Walk(f, func(node *models.WorkflowNode, _ int) bool {
		for _, child := range node.Children {
			parents[child] = node.UUID
		}

		return true
	})

	return parents
}

func parentOf(f *models.Forest, nodeUUID string) (string, bool) {
	parent, ok := parentIndex(f)[nodeUUID]

	return parent, ok
}
