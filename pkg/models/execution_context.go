package models

import "time"

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ExecutionLogEntry records one visited node of a run.
type ExecutionLogEntry struct {
	NodeUUID    string        `json:"node_uuid"`
	ActionID    string        `json:"action_id"`
	ActionLabel string        `json:"action_label"`
	Result      string        `json:"result"`
	Duration    time.Duration `json:"duration"`
}

// ExecutionResult is the outcome of a run. Report and Outputs hold whatever
// was accumulated before a failure or cancellation.
type ExecutionResult struct {
	RunID      string              `json:"run_id"`
	Status     RunStatus           `json:"status"`
	SeedText   string              `json:"seed_text"`
	FinalText  string              `json:"final_text"`
	Report     []ExecutionLogEntry `json:"report"`
	Outputs    map[string]string   `json:"outputs"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}
