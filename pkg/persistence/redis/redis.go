// Package redis provides Redis-based persistence for workflow documents.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the hash every document is stored under, one field per id.
const DefaultKey = "scriptorium:workflows"

// Persistence implements the persistence.Persistence interface using a Redis hash.
type Persistence struct {
	client       goredis.UniversalClient
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
}

// NewPersistence connects to the Redis server described by url, e.g. redis://localhost:6379/0.
func NewPersistence(ctx context.Context, logger *slog.Logger, url string) (*Persistence, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewPersistenceWithClient(client, logger), nil
}

// NewPersistenceWithClient wraps an already connected client.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{
		client:       client,
		logger:       logger.With("module", "redis_persistence"),
		workflowRepo: NewWorkflowRepository(client, DefaultKey),
	}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.WorkflowDocument, error) {
	return p.workflowRepo.GetAll(ctx)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowDocument) error {
	return p.workflowRepo.Save(ctx, workflow)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

// WorkflowRepository stores documents as JSON values of a single hash.
type WorkflowRepository struct {
	client goredis.UniversalClient
	key    string
}

func NewWorkflowRepository(client goredis.UniversalClient, key string) *WorkflowRepository {
	return &WorkflowRepository{client: client, key: key}
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDocument, error) {
	values, err := r.client.HVals(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.WorkflowDocument, 0, len(values))

	for _, value := range values {
		workflow, err := decode(value)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	persistence.SortByUpdatedAt(workflows)

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDocument, error) {
	value, err := r.client.HGet(ctx, r.key, id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	workflow, err := decode(value)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDocument) error {
	if err := persistence.PrepareForSave(workflow); err != nil {
		return err
	}

	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, fmt.Errorf("failed to marshal workflow: %w", err))
	}

	if err := r.client.HSet(ctx, r.key, workflow.ID, data).Err(); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	removed, err := r.client.HDel(ctx, r.key, id).Result()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func decode(value string) (*models.WorkflowDocument, error) {
	workflow := &models.WorkflowDocument{Forest: models.NewForest()}

	if err := json.Unmarshal([]byte(value), workflow); err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	return workflow, nil
}
