package tree

import (
	"fmt"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/google/uuid"
)

// Clone returns a deep copy of the forest.
func Clone(f *models.Forest) models.Forest {
	clone := models.Forest{
		Roots: append(make([]string, 0, len(f.Roots)), f.Roots...),
		Nodes: make(map[string]*models.WorkflowNode, len(f.Nodes)),
	}

	for id, node := range f.Nodes {
		if node != nil {
			clone.Nodes[id] = node.Clone()
		}
	}

	return clone
}

// CloneWithFreshIDs returns a deep copy of the forest in which every node
// received a new uuid. Structure, actions and flags are preserved.
func CloneWithFreshIDs(f *models.Forest) models.Forest {
	mapping := make(map[string]string, len(f.Nodes))
	for id, node := range f.Nodes {
		if node != nil {
			mapping[id] = uuid.NewString()
		}
	}

	clone := models.NewForest()
	for _, root := range f.Roots {
		if id, ok := mapping[root]; ok {
			clone.Roots = append(clone.Roots, id)
		}
	}

	for id, node := range f.Nodes {
		if node == nil {
			continue
		}

		copied := node.Clone()
		copied.UUID = mapping[id]

		children := make([]string, 0, len(node.Children))
		for _, child := range node.Children {
			if mapped, ok := mapping[child]; ok {
				children = append(children, mapped)
			}
		}

		copied.Children = children
		clone.Nodes[copied.UUID] = copied
	}

	return clone
}

// Nest converts the arena into its nested read model.
func Nest(f *models.Forest) []*models.TreeNode {
	views := make(map[string]*models.TreeNode, len(f.Nodes))
	order := make([]*models.WorkflowNode, 0, len(f.Nodes))

	Walk(f, func(node *models.WorkflowNode, _ int) bool {
		views[node.UUID] = &models.TreeNode{
			UUID:         node.UUID,
			Action:       node.Action,
			IsOutput:     node.IsOutput,
			CustomPrompt: node.CustomPrompt,
			Children:     []*models.TreeNode{},
		}
		order = append(order, node)

		return true
	})

	for _, node := range order {
		view := views[node.UUID]
		for _, child := range node.Children {
			if childView, ok := views[child]; ok {
				view.Children = append(view.Children, childView)
			}
		}
	}

	roots := make([]*models.TreeNode, 0, len(f.Roots))
	for _, root := range f.Roots {
		if view, ok := views[root]; ok {
			roots = append(roots, view)
		}
	}

	return roots
}

// Flatten converts a nested tree into an arena. Nodes without a uuid receive a
// fresh one; duplicate uuids are rejected.
func Flatten(roots []*models.TreeNode) (models.Forest, error) {
	forest := models.NewForest()

	type frame struct {
		view   *models.TreeNode
		parent string
	}

	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{view: roots[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.view == nil {
			continue
		}

		id := top.view.UUID
		if id == "" {
			id = uuid.NewString()
		}

		if _, exists := forest.Nodes[id]; exists {
			return models.Forest{}, newStructuralError("Flatten", id, ErrDuplicateNode)
		}

		forest.Nodes[id] = &models.WorkflowNode{
			UUID:         id,
			Action:       top.view.Action,
			IsOutput:     top.view.IsOutput,
			CustomPrompt: top.view.CustomPrompt,
			Children:     []string{},
		}

		if top.parent == "" {
			forest.Roots = append(forest.Roots, id)
		} else {
			parent := forest.Nodes[top.parent]
			parent.Children = append(parent.Children, id)
		}

		for i := len(top.view.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{view: top.view.Children[i], parent: id})
		}
	}

	return forest, nil
}

// Validate checks the forest invariants: every root and child reference
// resolves, uuids match their keys, no node is referenced twice (which also
// rules out cycles) and every node is reachable from a root.
func Validate(f *models.Forest) error {
	referenced := make(map[string]struct{}, len(f.Nodes))

	reference := func(id string) error {
		node, ok := lookup(f, id)
		if !ok {
			return newStructuralError("Validate", id, ErrNodeNotFound)
		}

		if node.UUID != id {
			return newStructuralError("Validate", id, fmt.Errorf("%w: stored as %s", ErrDuplicateNode, node.UUID))
		}

		if _, seen := referenced[id]; seen {
			return newStructuralError("Validate", id, ErrSharedNode)
		}

		referenced[id] = struct{}{}

		return nil
	}

	for _, root := range f.Roots {
		if err := reference(root); err != nil {
			return err
		}
	}

	for id, node := range f.Nodes {
		if node == nil {
			return newStructuralError("Validate", id, ErrNodeNotFound)
		}

		for _, child := range node.Children {
			if err := reference(child); err != nil {
				return err
			}
		}
	}

	reachable := 0

	Walk(f, func(_ *models.WorkflowNode, _ int) bool {
		reachable++

		return true
	})

	if reachable != len(f.Nodes) {
		for id := range f.Nodes {
			if _, ok := referenced[id]; !ok {
				return newStructuralError("Validate", id, ErrOrphanNode)
			}
		}

		return newStructuralError("Validate", "", ErrOrphanNode)
	}

	return nil
}
