// Package config holds the runtime configuration shared by the binaries.
package config

import (
	"fmt"
	"time"

	"github.com/dukex/scriptorium/pkg/editor"
	"github.com/dukex/scriptorium/pkg/transform"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultPort        = 9091
	DefaultDatabaseURL = "file://./data"
	DefaultLogLevel    = "info"
	DefaultServiceName = "scriptorium"
	DefaultAIModel     = "gpt-4o-mini"
)

type Config struct {
	ServiceName string `validate:"required"`
	Port        int    `validate:"min=1,max=65535"`
	DatabaseURL string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	// EventBus is empty when run events are not published.
	EventBus     string   `validate:"omitempty,oneof=gochannel kafka"`
	KafkaBrokers []string `validate:"required_if=EventBus kafka"`

	AIEndpoint   string `validate:"omitempty,url"`
	AIAPIKey     string
	AIModel      string `validate:"required_with=AIEndpoint"`
	AIMaxRetries uint64 `validate:"max=20"`
	AITimeout    time.Duration

	DefaultIsOutput bool
	Tracing         bool
}

// Default returns the configuration used when no flag or environment variable is set.
func Default() Config {
	return Config{
		ServiceName:  DefaultServiceName,
		Port:         DefaultPort,
		DatabaseURL:  DefaultDatabaseURL,
		LogLevel:     DefaultLogLevel,
		AIModel:      DefaultAIModel,
		AIMaxRetries: 3,
		AITimeout:    60 * time.Second,
	}
}

func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// Completion returns the remote completion settings, or false when no endpoint is configured.
func (c Config) Completion() (transform.CompletionConfig, bool) {
	if c.AIEndpoint == "" {
		return transform.CompletionConfig{}, false
	}

	return transform.CompletionConfig{
		Endpoint:   c.AIEndpoint,
		APIKey:     c.AIAPIKey,
		Model:      c.AIModel,
		MaxRetries: c.AIMaxRetries,
		Timeout:    c.AITimeout,
	}, true
}

func (c Config) EditorOptions() editor.Options {
	return editor.Options{DefaultIsOutput: c.DefaultIsOutput}
}
