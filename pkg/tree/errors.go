package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound indicates a uuid that does not exist in the forest.
	ErrNodeNotFound = errors.New("node not found")

	// ErrSelectionRequired indicates an attempt to add a second root while nothing is selected.
	ErrSelectionRequired = errors.New("selection required")

	// ErrInvalidField indicates an unknown node field name.
	ErrInvalidField = errors.New("invalid node field")

	// ErrInvalidValue indicates a value of the wrong type for a node field.
	ErrInvalidValue = errors.New("invalid node field value")

	// ErrDuplicateNode indicates the same uuid appearing twice.
	ErrDuplicateNode = errors.New("duplicate node uuid")

	// ErrSharedNode indicates a node referenced from more than one place.
	ErrSharedNode = errors.New("node referenced more than once")

	// ErrOrphanNode indicates a node not reachable from any root.
	ErrOrphanNode = errors.New("node not reachable from any root")
)

// StructuralError reports a failed structural operation. The forest is left unchanged.
type StructuralError struct {
	Op     string // Operation being performed (e.g., "InsertChild", "DeleteNode")
	NodeID string // Node uuid the operation referenced
	Err    error  // Underlying error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s failed for node %s: %v", e.Op, e.NodeID, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func (e *StructuralError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newStructuralError(op, nodeID string, err error) *StructuralError {
	return &StructuralError{Op: op, NodeID: nodeID, Err: err}
}

// IsNodeNotFound checks if an error indicates a missing node.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsSelectionRequired checks if an error indicates a missing selection.
func IsSelectionRequired(err error) bool {
	return errors.Is(err, ErrSelectionRequired)
}

// IsStructuralError checks if an error came from a structural tree operation.
func IsStructuralError(err error) bool {
	var se *StructuralError

	return errors.As(err, &se)
}
