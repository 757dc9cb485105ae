package main

import (
	"context"
	"log/slog"

	"github.com/dukex/scriptorium/pkg/cmd"
	"github.com/dukex/scriptorium/pkg/config"
	"github.com/dukex/scriptorium/pkg/eventbus"
	"github.com/dukex/scriptorium/pkg/log"
	"github.com/dukex/scriptorium/pkg/persistence"
	"github.com/dukex/scriptorium/pkg/registry"
	"github.com/dukex/scriptorium/pkg/services"
	"github.com/dukex/scriptorium/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// runtime holds the collaborators every subcommand works with.
type runtime struct {
	logger      *slog.Logger
	config      config.Config
	registry    *registry.Registry
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	workflows   *services.Workflow
	executor    *workflow.Executor
}

func newRuntime(ctx context.Context, command *cli.Command) (*runtime, error) {
	cfg := cmd.ConfigFrom(command)

	log.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.WithModule("cli")

	p, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	bus, err := cmd.NewEventBus(cfg.EventBus, logger, cfg.KafkaBrokers, cfg.ServiceName)
	if err != nil {
		_ = p.Close(ctx)

		return nil, err
	}

	serviceOpts := make([]services.Option, 0)
	executorOpts := make([]workflow.Option, 0)

	if bus != nil {
		serviceOpts = append(serviceOpts, services.WithPublisher(bus))
		executorOpts = append(executorOpts, workflow.WithPublisher(bus))
	}

	return &runtime{
		logger:      logger,
		config:      cfg,
		registry:    cmd.NewRegistry(logger),
		persistence: p,
		eventBus:    bus,
		workflows:   services.NewWorkflow(logger, p, serviceOpts...),
		executor:    workflow.NewExecutor(logger, cmd.NewApplier(logger, cfg), executorOpts...),
	}, nil
}

func (r *runtime) Close(ctx context.Context) {
	if r.eventBus != nil {
		if err := r.eventBus.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}

	if err := r.persistence.Close(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}

// withRuntime wraps a subcommand action so it receives a ready runtime.
func withRuntime(action func(ctx context.Context, command *cli.Command, rt *runtime) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		rt, err := newRuntime(ctx, command)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		return action(ctx, command, rt)
	}
}
