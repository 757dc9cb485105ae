package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dukex/scriptorium/pkg/events"
	"github.com/dukex/scriptorium/pkg/mocks"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/testutil"
	"github.com/dukex/scriptorium/pkg/transform"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestExecutor(apply transform.ApplyFunc, opts ...Option) *Executor {
	return NewExecutor(slog.Default(), apply, opts...)
}

func TestExecutor_ExampleScenario(t *testing.T) {
	forest := models.NewForest()

	root, err := tree.InsertRoot(&forest, testutil.CreateTestAction("clean"))
	require.NoError(t, err)

	child, err := tree.InsertChild(&forest, root.UUID, testutil.CreateTestAction("summary_exec"))
	require.NoError(t, err)

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{
		Forest:   &forest,
		Start:    []string{root.UUID},
		SeedText: "raw text",
	})
	require.NoError(t, err)

	require.Len(t, result.Report, 2)
	assert.Equal(t, root.UUID, result.Report[0].NodeUUID)
	assert.Equal(t, "clean", result.Report[0].ActionLabel)
	assert.Equal(t, "RAW TEXT::clean", result.Report[0].Result)
	assert.Equal(t, child.UUID, result.Report[1].NodeUUID)
	assert.Equal(t, "summary_exec", result.Report[1].ActionLabel)
	assert.Equal(t, "RAW TEXT::CLEAN::summary_exec", result.Report[1].Result)

	assert.Equal(t, "RAW TEXT::CLEAN::summary_exec", result.FinalText)
	assert.Equal(t, models.RunStatusCompleted, result.Status)
	assert.Empty(t, result.Outputs)
	assert.NotEmpty(t, result.RunID)
}

func TestExecutor_FollowsFirstChildOnly(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b")

	sibling, err := tree.InsertChild(&forest, ids[0], testutil.CreateTestAction("ignored"))
	require.NoError(t, err)

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.NoError(t, err)

	visited := make([]string, 0)
	for _, entry := range result.Report {
		visited = append(visited, entry.NodeUUID)
	}

	assert.Equal(t, ids, visited)
	assert.NotContains(t, visited, sibling.UUID)
}

func TestExecutor_StartSiblingSequence(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b", "c")

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{
		Forest:   &forest,
		Start:    []string{ids[1], ids[0]},
		SeedText: "x",
	})
	require.NoError(t, err)

	require.Len(t, result.Report, 2)
	assert.Equal(t, ids[1], result.Report[0].NodeUUID)
	assert.Equal(t, ids[2], result.Report[1].NodeUUID)
}

func TestExecutor_EmptyForest(t *testing.T) {
	forest := models.NewForest()

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "seed"})
	require.NoError(t, err)

	assert.Empty(t, result.Report)
	assert.Equal(t, "seed", result.FinalText)
	assert.Equal(t, models.RunStatusCompleted, result.Status)
}

func TestExecutor_OutputsAreSnapshots(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b", "c")
	require.NoError(t, tree.UpdateNodeField(&forest, ids[0], models.FieldIsOutput, true))
	require.NoError(t, tree.UpdateNodeField(&forest, ids[2], models.FieldIsOutput, true))

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		ids[0]: "X::a",
		ids[2]: "X::A::B::c",
	}, result.Outputs)
}

func TestExecutor_PassesCustomPrompt(t *testing.T) {
	forest, ids := testutil.CreateChain("translate")
	require.NoError(t, tree.UpdateNodeField(&forest, ids[0], models.FieldCustomPrompt, "into German"))

	applier := &mocks.MockApplier{}
	applier.On("Apply", mock.Anything, "hello", mock.MatchedBy(func(a models.ActionDefinition) bool {
		return a.ID == "translate"
	}), "into German").Return("hallo", nil)

	result, err := NewExecutor(slog.Default(), applier).Execute(context.Background(), Request{Forest: &forest, SeedText: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "hallo", result.FinalText)
	applier.AssertExpectations(t)
}

func TestExecutor_Deterministic(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b", "c", "d")
	require.NoError(t, tree.UpdateNodeField(&forest, ids[1], models.FieldIsOutput, true))

	executor := newTestExecutor(testutil.UpperApply)
	req := Request{Forest: &forest, SeedText: "seed"}

	first, err := executor.Execute(context.Background(), req)
	require.NoError(t, err)

	second, err := executor.Execute(context.Background(), req)
	require.NoError(t, err)

	strip := func(report []models.ExecutionLogEntry) []models.ExecutionLogEntry {
		out := make([]models.ExecutionLogEntry, len(report))
		for i, entry := range report {
			entry.Duration = 0
			out[i] = entry
		}

		return out
	}

	assert.Equal(t, strip(first.Report), strip(second.Report))
	assert.Equal(t, first.Outputs, second.Outputs)
	assert.Equal(t, first.FinalText, second.FinalText)
}

func TestExecutor_PartialResultsOnFailure(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b", "boom", "d")
	require.NoError(t, tree.UpdateNodeField(&forest, ids[0], models.FieldIsOutput, true))
	require.NoError(t, tree.UpdateNodeField(&forest, ids[3], models.FieldIsOutput, true))

	upstream := errors.New("rate limited")
	calls := 0

	apply := func(ctx context.Context, text string, action models.ActionDefinition, prompt string) (string, error) {
		calls++
		if action.ID == "boom" {
			return "", upstream
		}

		return testutil.UpperApply(ctx, text, action, prompt)
	}

	result, err := newTestExecutor(apply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.Error(t, err)
	require.NotNil(t, result)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ids[2], execErr.NodeID)
	assert.Equal(t, "boom", execErr.Action)
	assert.ErrorIs(t, err, upstream)
	assert.True(t, IsExecutionError(err))

	assert.Equal(t, 3, calls)
	require.Len(t, result.Report, 2)
	assert.Equal(t, map[string]string{ids[0]: "X::a"}, result.Outputs)
	assert.Equal(t, "X::A::b", result.FinalText)
	assert.Equal(t, models.RunStatusFailed, result.Status)
	assert.Contains(t, result.Error, "rate limited")
}

func TestExecutor_CancellationAtNodeBoundary(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b", "c")
	require.NoError(t, tree.UpdateNodeField(&forest, ids[1], models.FieldIsOutput, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apply := func(applyCtx context.Context, text string, action models.ActionDefinition, prompt string) (string, error) {
		if action.ID == "b" {
			cancel()
			// The running node is not preempted.
			assert.NoError(t, applyCtx.Err())
		}

		return testutil.UpperApply(applyCtx, text, action, prompt)
	}

	result, err := newTestExecutor(apply).Execute(ctx, Request{Forest: &forest, SeedText: "x"})
	require.Error(t, err)
	assert.True(t, IsRunCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, result.Report, 2)
	assert.Equal(t, ids[1], result.Report[1].NodeUUID)
	assert.Equal(t, map[string]string{ids[1]: "X::A::b"}, result.Outputs)
	assert.Equal(t, models.RunStatusCancelled, result.Status)

	assert.Len(t, forest.Nodes, 3)
}

func TestExecutor_CancelledBeforeStart(t *testing.T) {
	forest, _ := testutil.CreateChain("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestExecutor(testutil.UpperApply).Execute(ctx, Request{Forest: &forest, SeedText: "x"})
	require.ErrorIs(t, err, ErrRunCancelled)
	assert.Empty(t, result.Report)
	assert.Equal(t, "x", result.FinalText)
}

func TestExecutor_DanglingChild(t *testing.T) {
	forest, ids := testutil.CreateChain("a")
	forest.Nodes[ids[0]].Children = []string{"missing"}

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.ErrorIs(t, err, tree.ErrNodeNotFound)
	assert.Len(t, result.Report, 1)
}

func TestExecutor_NilChildRecord(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b")
	forest.Nodes[ids[1]] = nil

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.ErrorIs(t, err, tree.ErrNodeNotFound)
	assert.Len(t, result.Report, 1)
}

func TestExecutor_CycleGuard(t *testing.T) {
	forest, ids := testutil.CreateChain("a", "b")
	forest.Nodes[ids[1]].Children = []string{ids[0]}

	result, err := newTestExecutor(testutil.UpperApply).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.ErrorIs(t, err, tree.ErrSharedNode)
	assert.Len(t, result.Report, 2)
}

func TestExecutor_PublishesLifecycleEvents(t *testing.T) {
	forest, _ := testutil.CreateChain("a", "b")

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, "wf-1", mock.Anything).Return(nil)

	_, err := newTestExecutor(testutil.UpperApply, WithPublisher(bus)).Execute(context.Background(), Request{
		WorkflowID: "wf-1",
		Forest:     &forest,
		SeedText:   "x",
	})
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.RunStartedEvent,
		events.RunNodeExecutedEvent,
		events.RunNodeExecutedEvent,
		events.RunCompletedEvent,
	}, bus.PublishedTypes())
}

func TestExecutor_PublishFailureDoesNotFailRun(t *testing.T) {
	forest, _ := testutil.CreateChain("a")

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	result, err := newTestExecutor(testutil.UpperApply, WithPublisher(bus)).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.FinalText, "::a"))
}

func TestExecutor_PublishesFailure(t *testing.T) {
	forest, _ := testutil.CreateChain("a")

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	apply := func(context.Context, string, models.ActionDefinition, string) (string, error) {
		return "", errors.New("boom")
	}

	_, err := newTestExecutor(apply, WithPublisher(bus)).Execute(context.Background(), Request{Forest: &forest, SeedText: "x"})
	require.Error(t, err)

	assert.Equal(t, []events.EventType{events.RunStartedEvent, events.RunFailedEvent}, bus.PublishedTypes())
}

func TestExecutor_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	forest, _ := testutil.CreateChain("a", "b")

	failing := transform.ApplyFunc(func(ctx context.Context, text string, action models.ActionDefinition, prompt string) (string, error) {
		if action.ID == "b" {
			return "", errors.New("upstream down")
		}

		return testutil.UpperApply(ctx, text, action, prompt)
	})

	_, err := newTestExecutor(failing, WithTracer(provider.Tracer("test"))).Execute(context.Background(), Request{
		WorkflowID: "wf-1",
		Forest:     &forest,
		SeedText:   "x",
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	names := make([]string, 0, len(spans))
	for _, span := range spans {
		names = append(names, span.Name())
	}

	assert.Equal(t, []string{"workflow.node", "workflow.node", "workflow.run"}, names)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
