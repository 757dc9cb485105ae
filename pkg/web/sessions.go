package web

import (
	"github.com/dukex/scriptorium/pkg/editor"
	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/gofiber/fiber/v3"
)

func sessionResponse(s *editor.Session) SessionResponse {
	doc := s.Document()
	selection, _ := s.Selection()

	return SessionResponse{
		ID:          s.ID(),
		WorkflowID:  doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		UpdatedAt:   doc.UpdatedAt,
		Roots:       tree.Nest(&doc.Forest),
		Selection:   selection,
		ActivePath:  s.ActivePath(),
		Running:     s.Running(),
	}
}

func (h *APIHandlers) session(c fiber.Ctx) (*editor.Session, error) {
	return h.sessions.Get(c.Params("sid"))
}

func (h *APIHandlers) OpenSession(c fiber.Ctx) error {
	var req OpenSessionRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	var doc *models.WorkflowDocument

	if req.WorkflowID != "" {
		stored, err := h.workflowService.FetchByID(c.Context(), req.WorkflowID)
		if err != nil {
			return handleError(c, err)
		}

		doc = stored
	}

	s := h.sessions.Open(doc)

	return c.Status(fiber.StatusCreated).JSON(sessionResponse(s))
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(sessionResponse(s))
}

func (h *APIHandlers) CloseSession(c fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("sid")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) RenameSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	var req RenameSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	doc := s.Document()
	name, description := doc.Name, doc.Description

	if req.Name != nil {
		name = *req.Name
	}

	if req.Description != nil {
		description = *req.Description
	}

	s.Rename(name, description)

	return c.JSON(sessionResponse(s))
}

func (h *APIHandlers) SelectNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	var req SelectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !s.SelectNode(req.UUID) {
		return notFound(c, "node_not_found", "node not found")
	}

	return c.JSON(sessionResponse(s))
}

func (h *APIHandlers) ClearSelection(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	s.ClearSelection()

	return c.JSON(sessionResponse(s))
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	var req AddNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := s.AddActionByID(req.ActionID)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	nodeUUID := c.Params("uuid")

	if err := s.UpdateNodeField(nodeUUID, models.NodeField(req.Field), req.Value); err != nil {
		return handleError(c, err)
	}

	forest := s.Forest()

	node, ok := tree.FindNode(&forest, nodeUUID)
	if !ok {
		return notFound(c, "node_not_found", "node not found")
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	removed, err := s.DeleteNode(c.Params("uuid"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(fiber.Map{"removed": removed})
}

func (h *APIHandlers) RunSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	var req RunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var result *models.ExecutionResult

	if req.From != "" {
		result, err = s.RunFrom(c.Context(), req.From, req.SeedText)
	} else {
		result, err = s.Run(c.Context(), req.SeedText)
	}

	if result == nil {
		return handleError(c, err)
	}

	status, p := runProblem(c, err)

	return c.Status(status).JSON(RunResponse{Result: result, Error: p})
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	if err := s.CancelRun(); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) SaveSession(c fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return handleError(c, err)
	}

	saved, err := s.Save(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(saved)
}
