package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts every API endpoint on router.
func RegisterRoutes(router fiber.Router, h *APIHandlers) {
	a := router.Group("/actions")
	a.Get("/", h.GetActions)
	a.Get("/:id", h.GetAction)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/import", h.ImportWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/duplicate", h.DuplicateWorkflow)
	w.Get("/:id/export", h.ExportWorkflow)

	s := router.Group("/sessions")
	s.Post("/", h.OpenSession)
	s.Get("/:sid", h.GetSession)
	s.Patch("/:sid", h.RenameSession)
	s.Delete("/:sid", h.CloseSession)
	s.Post("/:sid/select", h.SelectNode)
	s.Delete("/:sid/select", h.ClearSelection)
	s.Post("/:sid/nodes", h.AddNode)
	s.Patch("/:sid/nodes/:uuid", h.UpdateNode)
	s.Delete("/:sid/nodes/:uuid", h.DeleteNode)
	s.Post("/:sid/run", h.RunSession)
	s.Post("/:sid/cancel", h.CancelRun)
	s.Post("/:sid/save", h.SaveSession)

	router.Get("/health", h.HealthCheck)
}
