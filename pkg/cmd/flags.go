package cmd

import (
	"time"

	"github.com/dukex/scriptorium/pkg/channels/kafka"
	"github.com/dukex/scriptorium/pkg/config"
	cli "github.com/urfave/cli/v3"
)

// CommonFlags are the flags shared by every binary.
func CommonFlags() []cli.Flag {
	defaults := config.Default()

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Database connection URL for persistence (file://, postgres://, redis://)",
			Value:   defaults.DatabaseURL,
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus for run events (gochannel, kafka); empty disables events",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   defaults.LogLevel,
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "ai-endpoint",
			Usage:   "Base URL of an OpenAI compatible completion API",
			Sources: cli.EnvVars("AI_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "ai-api-key",
			Usage:   "API key sent to the completion API",
			Sources: cli.EnvVars("AI_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "ai-model",
			Usage:   "Model requested from the completion API",
			Value:   defaults.AIModel,
			Sources: cli.EnvVars("AI_MODEL"),
		},
		&cli.Uint64Flag{
			Name:    "ai-max-retries",
			Usage:   "Retries of rate limited or failed completion requests",
			Value:   defaults.AIMaxRetries,
			Sources: cli.EnvVars("AI_MAX_RETRIES"),
		},
		&cli.DurationFlag{
			Name:    "ai-timeout",
			Usage:   "Timeout of a single completion request",
			Value:   defaults.AITimeout,
			Sources: cli.EnvVars("AI_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:    "default-output",
			Usage:   "Mark newly added nodes as outputs",
			Sources: cli.EnvVars("DEFAULT_OUTPUT"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
	}
}

// ConfigFrom reads the common flags of command into a Config.
func ConfigFrom(command *cli.Command) config.Config {
	cfg := config.Default()

	cfg.DatabaseURL = command.String("database-url")
	cfg.EventBus = command.String("event-bus")
	cfg.KafkaBrokers = kafka.ParseBrokers(command.String("kafka-brokers"))
	cfg.LogLevel = command.String("log-level")
	cfg.AIEndpoint = command.String("ai-endpoint")
	cfg.AIAPIKey = command.String("ai-api-key")
	cfg.AIModel = command.String("ai-model")
	cfg.AIMaxRetries = command.Uint64("ai-max-retries")
	cfg.AITimeout = command.Duration("ai-timeout")
	cfg.DefaultIsOutput = command.Bool("default-output")
	cfg.Tracing = command.Bool("otel")

	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 60 * time.Second
	}

	return cfg
}
