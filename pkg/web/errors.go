package web

import (
	"errors"

	"github.com/dukex/scriptorium/pkg/editor"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/dukex/scriptorium/pkg/registry"
	"github.com/dukex/scriptorium/pkg/services"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/dukex/scriptorium/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, kind, detail string) *problems.Problem {
	return problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)
}

func badRequest(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(problem(c, fiber.StatusBadRequest, "validation_error", detail))
}

func notFound(c fiber.Ctx, kind, detail string) error {
	return c.Status(fiber.StatusNotFound).JSON(problem(c, fiber.StatusNotFound, kind, detail))
}

func conflict(c fiber.Ctx, kind, detail string) error {
	return c.Status(fiber.StatusConflict).JSON(problem(c, fiber.StatusConflict, kind, detail))
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleError maps domain errors to problem responses.
func handleError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err),
		errors.Is(err, tree.ErrInvalidField),
		errors.Is(err, tree.ErrInvalidValue):
		return badRequest(c, err.Error())

	case tree.IsSelectionRequired(err):
		return conflict(c, "selection_required", "select a node to attach the new step to")

	case errors.Is(err, editor.ErrRunInProgress):
		return conflict(c, "run_in_progress", err.Error())

	case errors.Is(err, editor.ErrNoRunInProgress):
		return conflict(c, "no_run_in_progress", err.Error())

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case tree.IsNodeNotFound(err):
		return notFound(c, "node_not_found", "node not found")

	case registry.IsActionNotFound(err):
		return notFound(c, "action_not_found", err.Error())

	case errors.Is(err, editor.ErrSessionNotFound):
		return notFound(c, "session_not_found", "session not found")

	case errors.Is(err, persistence.ErrInvalidWorkflowID):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}

// runProblem describes a failed run; it is nil for completed and cancelled runs.
func runProblem(c fiber.Ctx, err error) (int, *problems.Problem) {
	if err == nil || workflow.IsRunCancelled(err) {
		return fiber.StatusOK, nil
	}

	if workflow.IsExecutionError(err) {
		return fiber.StatusBadGateway, problem(c, fiber.StatusBadGateway, "execution_error", err.Error())
	}

	return fiber.StatusInternalServerError, problem(c, fiber.StatusInternalServerError, "internal_error", err.Error())
}
