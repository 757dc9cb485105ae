// Package workflow runs text through a workflow forest, one node at a time.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scriptorium/pkg/eventbus"
	"github.com/dukex/scriptorium/pkg/events"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/otelhelper"
	"github.com/dukex/scriptorium/pkg/transform"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "scriptorium.workflow"

// Request describes one run.
type Request struct {
	WorkflowID string
	Forest     *models.Forest
	// Start is the sibling sequence the run begins at; only its first node is
	// followed. Empty means the forest roots.
	Start    []string
	SeedText string
}

// Executor walks a forest depth-first along the first child of every node,
// threading the working text through the applier. It only reads the forest.
type Executor struct {
	logger    *slog.Logger
	applier   transform.Applier
	tracer    trace.Tracer
	publisher eventbus.EventPublisher
	now       func() time.Time
}

type Option func(*Executor)

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithPublisher announces run lifecycle events on the given publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.publisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(logger *slog.Logger, applier transform.Applier, opts ...Option) *Executor {
	e := &Executor{
		logger:  logger.With("module", "workflow_executor"),
		applier: applier,
		tracer:  otelhelper.DefaultTracer(tracerName),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs req and always returns a non-nil result. On failure or
// cancellation the result carries the report and outputs accumulated so far
// together with the error. Cancellation is checked before each node; a node
// whose applier call has started runs to completion.
func (e *Executor) Execute(ctx context.Context, req Request) (*models.ExecutionResult, error) {
	result := &models.ExecutionResult{
		RunID:     uuid.NewString(),
		SeedText:  req.SeedText,
		FinalText: req.SeedText,
		Report:    make([]models.ExecutionLogEntry, 0),
		Outputs:   make(map[string]string),
		StartedAt: e.now(),
	}

	logger := e.logger.With("run_id", result.RunID, "workflow_id", req.WorkflowID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.run",
		attribute.String(otelhelper.RunIDKey, result.RunID),
		attribute.String(otelhelper.WorkflowIDKey, req.WorkflowID),
	)
	defer span.End()

	if req.Forest == nil {
		forest := models.NewForest()
		req.Forest = &forest
	}

	start := req.Start
	if len(start) == 0 {
		start = req.Forest.Roots
	}

	next := ""
	if len(start) > 0 {
		next = start[0]
	}

	logger.InfoContext(ctx, "Starting run", "start_uuid", next, "nodes", req.Forest.Len())
	e.publish(ctx, logger, req.WorkflowID, events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, req.WorkflowID),
		RunID:     result.RunID,
		StartUUID: next,
		SeedText:  req.SeedText,
		NodeCount: req.Forest.Len(),
	})

	visited := make(map[string]struct{}, req.Forest.Len())
	text := req.SeedText

	for next != "" {
		if err := ctx.Err(); err != nil {
			return e.cancel(ctx, logger, req, result, span, err)
		}

		node, ok := req.Forest.Nodes[next]
		if !ok || node == nil {
			return e.fail(ctx, logger, req, result, span, &ExecutionError{NodeID: next, Err: tree.ErrNodeNotFound})
		}

		if _, seen := visited[next]; seen {
			return e.fail(ctx, logger, req, result, span, &ExecutionError{NodeID: next, Action: node.Action.ID, Err: tree.ErrSharedNode})
		}

		visited[next] = struct{}{}

		entry, err := e.visit(ctx, logger, node, text, len(result.Report))
		if err != nil {
			return e.fail(ctx, logger, req, result, span, &ExecutionError{NodeID: node.UUID, Action: node.Action.ID, Err: err})
		}

		text = entry.Result
		result.FinalText = text
		result.Report = append(result.Report, entry)

		if node.IsOutput {
			result.Outputs[node.UUID] = text
		}

		e.publish(ctx, logger, req.WorkflowID, events.RunNodeExecuted{
			BaseEvent: events.NewBaseEvent(events.RunNodeExecutedEvent, req.WorkflowID),
			RunID:     result.RunID,
			Position:  len(result.Report) - 1,
			Entry:     entry,
			IsOutput:  node.IsOutput,
		})

		next = ""
		if len(node.Children) > 0 {
			next = node.Children[0]
		}
	}

	result.Status = models.RunStatusCompleted
	result.FinishedAt = e.now()

	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
	logger.InfoContext(ctx, "Run completed", "steps", len(result.Report), "outputs", len(result.Outputs))

	e.publish(ctx, logger, req.WorkflowID, events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, req.WorkflowID),
		RunID:     result.RunID,
		FinalText: result.FinalText,
		Outputs:   result.Outputs,
		Steps:     len(result.Report),
		Duration:  result.FinishedAt.Sub(result.StartedAt),
	})

	return result, nil
}

func (e *Executor) visit(ctx context.Context, logger *slog.Logger, node *models.WorkflowNode, text string, position int) (models.ExecutionLogEntry, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeUUIDKey, node.UUID),
		attribute.String(otelhelper.ActionIDKey, node.Action.ID),
		attribute.String(otelhelper.ActionCategoryKey, string(node.Action.Category)),
		attribute.Int(otelhelper.NodePositionKey, position),
	)
	defer span.End()

	logger.DebugContext(ctx, "Applying node", "node_uuid", node.UUID, "action_id", node.Action.ID, "position", position)

	started := e.now()

	out, err := e.applier.Apply(context.WithoutCancel(ctx), text, node.Action, node.CustomPrompt)
	if err != nil {
		otelhelper.SetError(span, err, node.UUID)

		return models.ExecutionLogEntry{}, err
	}

	return models.ExecutionLogEntry{
		NodeUUID:    node.UUID,
		ActionID:    node.Action.ID,
		ActionLabel: node.Action.Label,
		Result:      out,
		Duration:    e.now().Sub(started),
	}, nil
}

func (e *Executor) fail(
	ctx context.Context,
	logger *slog.Logger,
	req Request,
	result *models.ExecutionResult,
	span trace.Span,
	err *ExecutionError,
) (*models.ExecutionResult, error) {
	result.Status = models.RunStatusFailed
	result.Error = err.Error()
	result.FinishedAt = e.now()

	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
	otelhelper.SetError(span, err, err.NodeID)
	logger.ErrorContext(ctx, "Run failed", "node_uuid", err.NodeID, "action_id", err.Action, "steps", len(result.Report), "error", err.Err)

	e.publish(ctx, logger, req.WorkflowID, events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, req.WorkflowID),
		RunID:     result.RunID,
		NodeUUID:  err.NodeID,
		ActionID:  err.Action,
		Error:     err.Err.Error(),
		Steps:     len(result.Report),
		Duration:  result.FinishedAt.Sub(result.StartedAt),
	})

	return result, err
}

func (e *Executor) cancel(
	ctx context.Context,
	logger *slog.Logger,
	req Request,
	result *models.ExecutionResult,
	span trace.Span,
	cause error,
) (*models.ExecutionResult, error) {
	err := fmt.Errorf("%w: %w", ErrRunCancelled, cause)

	result.Status = models.RunStatusCancelled
	result.Error = err.Error()
	result.FinishedAt = e.now()

	span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
	logger.WarnContext(ctx, "Run cancelled", "steps", len(result.Report), "reason", cause)

	reason := cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		reason = "deadline exceeded"
	}

	e.publish(context.WithoutCancel(ctx), logger, req.WorkflowID, events.RunCancelled{
		BaseEvent: events.NewBaseEvent(events.RunCancelledEvent, req.WorkflowID),
		RunID:     result.RunID,
		Reason:    reason,
		Steps:     len(result.Report),
		Duration:  result.FinishedAt.Sub(result.StartedAt),
	})

	return result, err
}

func (e *Executor) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}
