package workflow

import (
	"errors"
	"fmt"
)

// ErrRunCancelled indicates a run stopped at a node boundary because its
// context was cancelled.
var ErrRunCancelled = errors.New("run cancelled")

// ExecutionError reports the node at which a run halted.
type ExecutionError struct {
	NodeID string // Node uuid being visited
	Action string // Action id of that node
	Err    error  // Underlying error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action %s failed at node %s: %v", e.Action, e.NodeID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsExecutionError checks if an error halted a run at a node.
func IsExecutionError(err error) bool {
	var ee *ExecutionError

	return errors.As(err, &ee)
}

// IsRunCancelled checks if an error indicates a cancelled run.
func IsRunCancelled(err error) bool {
	return errors.Is(err, ErrRunCancelled)
}
