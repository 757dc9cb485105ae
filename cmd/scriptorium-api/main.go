package main

import (
	"context"
	"os"

	"github.com/dukex/scriptorium/pkg/cmd"
	"github.com/dukex/scriptorium/pkg/config"
	"github.com/dukex/scriptorium/pkg/log"
	"github.com/dukex/scriptorium/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "scriptorium-api",
		Usage:                 "Build and run text processing pipelines over HTTP",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   config.DefaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		}, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg := cmd.ConfigFrom(command)
			cfg.Port = command.Int("port")

			log.Setup(cfg.LogLevel)

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Initializing Scriptorium API")

			registry := cmd.NewRegistry(logger)

			persistence, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			api := NewAPI(logger, cfg, persistence, registry, cmd.NewApplier(logger, cfg))

			eventBus, err := cmd.NewEventBus(cfg.EventBus, logger, cfg.KafkaBrokers, cfg.ServiceName)
			if err != nil {
				return err
			}

			if eventBus != nil {
				api.WithEventBus(eventBus)

				defer func() {
					if err := eventBus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()
			}

			if cfg.Tracing {
				tracer, shutdown, err := otelhelper.NewTracer(ctx, cfg.ServiceName)
				if err != nil {
					return err
				}

				api.WithTracer(tracer)

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
					}
				}()
			}

			err = api.Start(cfg.Port)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Scriptorium API stopped", "error", err)
		os.Exit(1)
	}
}
