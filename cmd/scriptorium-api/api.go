// Package main provides the Scriptorium API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/scriptorium/pkg/config"
	"github.com/dukex/scriptorium/pkg/editor"
	"github.com/dukex/scriptorium/pkg/eventbus"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/dukex/scriptorium/pkg/registry"
	"github.com/dukex/scriptorium/pkg/services"
	"github.com/dukex/scriptorium/pkg/transform"
	"github.com/dukex/scriptorium/pkg/web"
	"github.com/dukex/scriptorium/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	config      config.Config
	persistence persistence.Persistence
	registry    *registry.Registry
	applier     transform.Applier
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	cfg config.Config,
	persistence persistence.Persistence,
	registry *registry.Registry,
	applier transform.Applier,
) *API {
	return &API{
		logger:      logger,
		config:      cfg,
		persistence: persistence,
		registry:    registry,
		applier:     applier,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// WithEventBus publishes run and document events on bus.
func (a *API) WithEventBus(bus eventbus.EventBus) *API {
	a.eventBus = bus

	return a
}

func (a *API) WithTracer(tracer trace.Tracer) *API {
	a.tracer = tracer

	return a
}

func (a *API) App() *fiber.App {
	serviceOpts := make([]services.Option, 0)
	executorOpts := make([]workflow.Option, 0)

	if a.eventBus != nil {
		serviceOpts = append(serviceOpts, services.WithPublisher(a.eventBus))
		executorOpts = append(executorOpts, workflow.WithPublisher(a.eventBus))
	}

	if a.tracer != nil {
		executorOpts = append(executorOpts, workflow.WithTracer(a.tracer))
	}

	workflowService := services.NewWorkflow(a.logger, a.persistence, serviceOpts...)
	executor := workflow.NewExecutor(a.logger, a.applier, executorOpts...)
	sessions := editor.NewManager(a.logger, a.registry, executor, workflowService, a.config.EditorOptions())

	handlers := web.NewAPIHandlers(workflowService, sessions, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Scriptorium API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
