// Package events defines event types and structures for pipeline run and document notifications.
package events

import (
	"time"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/google/uuid"
)

type EventType string

const Topic = "scriptorium.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Pipeline run lifecycle events.
	RunStartedEvent      EventType = "run.started"
	RunNodeExecutedEvent EventType = "run.node.executed"
	RunCompletedEvent    EventType = "run.completed"
	RunFailedEvent       EventType = "run.failed"
	RunCancelledEvent    EventType = "run.cancelled"

	// Document lifecycle events.
	WorkflowSavedEvent   EventType = "workflow.saved"
	WorkflowDeletedEvent EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type RunStarted struct {
	BaseEvent

	RunID     string   `json:"run_id"`
	StartUUID string   `json:"start_uuid"`
	SeedText  string   `json:"seed_text"`
	NodeCount int      `json:"node_count"`
	Path      []string `json:"path,omitempty"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunNodeExecuted struct {
	BaseEvent

	RunID    string                   `json:"run_id"`
	Position int                      `json:"position"`
	Entry    models.ExecutionLogEntry `json:"entry"`
	IsOutput bool                     `json:"is_output"`
}

func (e RunNodeExecuted) GetType() EventType {
	return RunNodeExecutedEvent
}

type RunCompleted struct {
	BaseEvent

	RunID     string            `json:"run_id"`
	FinalText string            `json:"final_text"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Steps     int               `json:"steps"`
	Duration  time.Duration     `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	NodeUUID string        `json:"node_uuid"`
	ActionID string        `json:"action_id"`
	Error    string        `json:"error"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCancelled struct {
	BaseEvent

	RunID    string        `json:"run_id"`
	Reason   string        `json:"reason"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

type WorkflowSaved struct {
	BaseEvent

	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	Created   bool   `json:"created"`
}

func (e WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (e WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}
