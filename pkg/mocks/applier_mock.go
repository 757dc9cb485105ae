package mocks

import (
	"context"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockApplier is a mock implementation of transform.Applier interface.
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) Apply(ctx context.Context, text string, action models.ActionDefinition, customPrompt string) (string, error) {
	args := m.Called(ctx, text, action, customPrompt)

	return args.String(0), args.Error(1)
}
