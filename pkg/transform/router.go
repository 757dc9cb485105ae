package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/scriptorium/pkg/models"
)

// Router sends local actions to Local and everything else to the remote applier.
type Router struct {
	logger *slog.Logger
	local  *Local
	remote Applier
}

// NewRouter returns a router. remote may be nil, in which case only local
// actions can run.
func NewRouter(logger *slog.Logger, local *Local, remote Applier) *Router {
	return &Router{
		logger: logger.With("module", "transform_router"),
		local:  local,
		remote: remote,
	}
}

func (r *Router) Apply(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error) {
	if r.local != nil && r.local.Supports(action.ID) {
		r.logger.DebugContext(ctx, "Applying local action", "action_id", action.ID)

		return r.local.Apply(ctx, text, action, customPrompt)
	}

	if r.remote == nil {
		return "", fmt.Errorf("%w: %s requires a completion endpoint", ErrUnsupportedAction, action.ID)
	}

	r.logger.DebugContext(ctx, "Applying remote action", "action_id", action.ID)

	return r.remote.Apply(ctx, text, action, customPrompt)
}
