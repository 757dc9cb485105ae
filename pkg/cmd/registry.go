// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/scriptorium/pkg/config"
	"github.com/dukex/scriptorium/pkg/registry"
	"github.com/dukex/scriptorium/pkg/transform"
)

func NewRegistry(log *slog.Logger) *registry.Registry {
	return registry.NewDefaultRegistry(log)
}

// NewApplier routes local actions to the in-process transformer and everything
// else to the completion service, when one is configured.
func NewApplier(logger *slog.Logger, cfg config.Config) transform.Applier {
	var remote transform.Applier

	if completion, ok := cfg.Completion(); ok {
		remote = transform.NewCompletionClient(logger, completion)
	}

	return transform.NewRouter(logger, transform.NewLocal(), remote)
}
