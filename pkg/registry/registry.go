// Package registry provides the catalogue of actions workflow nodes can perform.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/go-playground/validator/v10"
)

// ErrActionNotFound indicates an action id that is not in the catalogue.
var ErrActionNotFound = errors.New("action not found")

type Registry struct {
	logger   *slog.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	actions map[string]models.ActionDefinition
	order   []string
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		actions:  make(map[string]models.ActionDefinition),
		order:    make([]string, 0),
	}
}

// NewDefaultRegistry returns a registry holding the built-in catalogue.
func NewDefaultRegistry(log *slog.Logger) *Registry {
	r := NewRegistry(log)
	r.RegisterDefaultActions()

	return r
}

// Register adds an action definition. Registering an id twice replaces the
// definition but keeps its catalogue position.
func (r *Registry) Register(action models.ActionDefinition) error {
	if err := r.validate.Struct(action); err != nil {
		return fmt.Errorf("invalid action definition '%s': %w", action.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.ID]; !exists {
		r.order = append(r.order, action.ID)
	}

	r.actions[action.ID] = action

	r.logger.Debug("Registered action", "action_id", action.ID, "category", action.Category)

	return nil
}

// ListActions returns every action in catalogue order.
func (r *Registry) ListActions() []models.ActionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]models.ActionDefinition, 0, len(r.order))
	for _, id := range r.order {
		actions = append(actions, r.actions[id])
	}

	return actions
}

// ListByCategory returns the actions of one category in catalogue order.
func (r *Registry) ListByCategory(category models.Category) []models.ActionDefinition {
	actions := make([]models.ActionDefinition, 0)

	for _, action := range r.ListActions() {
		if action.Category == category {
			actions = append(actions, action)
		}
	}

	return actions
}

// FindAction looks an action up by id.
func (r *Registry) FindAction(id string) (models.ActionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[id]

	return action, ok
}

// MustFindAction looks an action up by id and reports ErrActionNotFound on a miss.
func (r *Registry) MustFindAction(id string) (models.ActionDefinition, error) {
	action, ok := r.FindAction(id)
	if !ok {
		return models.ActionDefinition{}, fmt.Errorf("%w: %s", ErrActionNotFound, id)
	}

	return action, nil
}

// HealthCheck reports whether the catalogue is usable.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.actions) == 0 {
		return "Registry has no actions", false
	}

	return fmt.Sprintf("Registry has %d actions", len(r.actions)), true
}

// IsActionNotFound checks if an error indicates an unknown action id.
func IsActionNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}
