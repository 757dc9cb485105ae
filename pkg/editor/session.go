// Package editor holds the interactive editing state of one workflow document:
// the forest, the selected node and the run currently in flight.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/scriptorium/pkg/models"
	"github.com/dukex/scriptorium/pkg/registry"
	"github.com/dukex/scriptorium/pkg/tree"
	"github.com/dukex/scriptorium/pkg/workflow"
	"github.com/google/uuid"
)

// ActionFinder resolves action ids.
type ActionFinder interface {
	FindAction(id string) (models.ActionDefinition, bool)
}

// Runner executes a pipeline run.
type Runner interface {
	Execute(ctx context.Context, req workflow.Request) (*models.ExecutionResult, error)
}

// Saver persists a document, assigning an id to new ones.
type Saver interface {
	Save(ctx context.Context, doc *models.WorkflowDocument) error
}

// Options parameterises editor policy.
type Options struct {
	// DefaultIsOutput is the isOutput flag given to newly added nodes.
	DefaultIsOutput bool
}

type Session struct {
	id      string
	logger  *slog.Logger
	actions ActionFinder
	runner  Runner
	saver   Saver
	options Options

	// saveMu serialises saves so a new document is created only once.
	saveMu sync.Mutex

	mu        sync.Mutex
	doc       *models.WorkflowDocument
	selected  string
	cancelRun context.CancelFunc
}

// NewSession opens a session on a copy of doc, or on an empty document when doc is nil.
func NewSession(logger *slog.Logger, actions ActionFinder, runner Runner, saver Saver, doc *models.WorkflowDocument, options Options) *Session {
	id := uuid.NewString()

	working := models.NewWorkflowDocument("", "")
	if doc != nil {
		working = copyDocument(doc)
	}

	return &Session{
		id:      id,
		logger:  logger.With("module", "editor", "session_id", id),
		actions: actions,
		runner:  runner,
		saver:   saver,
		options: options,
		doc:     working,
	}
}

func copyDocument(doc *models.WorkflowDocument) *models.WorkflowDocument {
	c := *doc
	c.Forest = tree.Clone(&doc.Forest)

	return &c
}

func (s *Session) ID() string {
	return s.id
}

// Forest returns a snapshot of the forest.
func (s *Session) Forest() models.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return tree.Clone(&s.doc.Forest)
}

// Document returns a snapshot of the edited document.
func (s *Session) Document() *models.WorkflowDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyDocument(s.doc)
}

// Selection returns the selected node uuid, if any.
func (s *Session) Selection() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selected, s.selected != ""
}

// ActivePath returns the nodes from a root down to the selection, or an empty
// path when nothing is selected.
func (s *Session) ActivePath() []models.WorkflowNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.activePath()
}

func (s *Session) activePath() []models.WorkflowNode {
	if s.selected == "" {
		return []models.WorkflowNode{}
	}

	path, ok := tree.PathTo(&s.doc.Forest, s.selected)
	if !ok {
		return []models.WorkflowNode{}
	}

	return path
}

// SelectNode selects nodeUUID. Unknown uuids leave the selection unchanged.
func (s *Session) SelectNode(nodeUUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := tree.FindNode(&s.doc.Forest, nodeUUID); !ok {
		return false
	}

	s.selected = nodeUUID

	return true
}

func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = ""
}

// AddAction attaches a node for action under the selection. Without a selection
// it creates the first root, and rejects with tree.ErrSelectionRequired once the
// forest has one. The new node becomes the selection.
func (s *Session) AddAction(action models.ActionDefinition) (models.WorkflowNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opt := tree.WithOutput(s.options.DefaultIsOutput)

	var (
		node models.WorkflowNode
		err  error
	)

	if s.selected != "" {
		node, err = tree.InsertChild(&s.doc.Forest, s.selected, action, opt)
	} else {
		node, err = tree.InsertRoot(&s.doc.Forest, action, opt)
	}

	if err != nil {
		return models.WorkflowNode{}, err
	}

	s.selected = node.UUID
	s.logger.Debug("Added node", "node_uuid", node.UUID, "action_id", action.ID)

	return node, nil
}

// AddActionByID resolves actionID and adds it like AddAction.
func (s *Session) AddActionByID(actionID string) (models.WorkflowNode, error) {
	action, err := s.resolve(actionID)
	if err != nil {
		return models.WorkflowNode{}, err
	}

	return s.AddAction(action)
}

// DeleteSelected removes the selected node and its subtree.
func (s *Session) DeleteSelected() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == "" {
		return nil, fmt.Errorf("DeleteSelected: %w", tree.ErrSelectionRequired)
	}

	return s.deleteNode(s.selected)
}

// DeleteNode removes nodeUUID and its subtree, clearing the selection when it
// was inside the removed subtree.
func (s *Session) DeleteNode(nodeUUID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteNode(nodeUUID)
}

func (s *Session) deleteNode(nodeUUID string) ([]string, error) {
	removed, err := tree.DeleteNode(&s.doc.Forest, nodeUUID)
	if err != nil {
		return nil, err
	}

	for _, id := range removed {
		if id == s.selected {
			s.selected = ""

			break
		}
	}

	s.logger.Debug("Deleted node", "node_uuid", nodeUUID, "removed", len(removed))

	return removed, nil
}

// UpdateNodeField sets one field of a node. FieldAction accepts an action id
// string, resolved through the catalogue, or an ActionDefinition.
func (s *Session) UpdateNodeField(nodeUUID string, field models.NodeField, value any) error {
	if field == models.FieldAction {
		if actionID, ok := value.(string); ok {
			action, err := s.resolve(actionID)
			if err != nil {
				return err
			}

			value = action
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return tree.UpdateNodeField(&s.doc.Forest, nodeUUID, field, value)
}

// Rename sets the document name and description.
func (s *Session) Rename(name, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Name = name
	s.doc.Description = description
}

func (s *Session) resolve(actionID string) (models.ActionDefinition, error) {
	action, ok := s.actions.FindAction(actionID)
	if !ok {
		return models.ActionDefinition{}, fmt.Errorf("%w: %s", registry.ErrActionNotFound, actionID)
	}

	return action, nil
}

// Run executes the pipeline from the first root on a snapshot of the forest.
// Edits made while it runs do not affect it.
func (s *Session) Run(ctx context.Context, seedText string) (*models.ExecutionResult, error) {
	return s.run(ctx, "", seedText)
}

// RunFrom executes the pipeline starting at nodeUUID.
func (s *Session) RunFrom(ctx context.Context, nodeUUID, seedText string) (*models.ExecutionResult, error) {
	return s.run(ctx, nodeUUID, seedText)
}

func (s *Session) run(ctx context.Context, from, seedText string) (*models.ExecutionResult, error) {
	s.mu.Lock()

	if s.cancelRun != nil {
		s.mu.Unlock()

		return nil, ErrRunInProgress
	}

	if from != "" {
		if _, ok := tree.FindNode(&s.doc.Forest, from); !ok {
			s.mu.Unlock()

			return nil, &tree.StructuralError{Op: "RunFrom", NodeID: from, Err: tree.ErrNodeNotFound}
		}
	}

	snapshot := tree.Clone(&s.doc.Forest)
	workflowID := s.doc.ID

	ctx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.mu.Unlock()

	defer func() {
		cancel()

		s.mu.Lock()
		s.cancelRun = nil
		s.mu.Unlock()
	}()

	req := workflow.Request{
		WorkflowID: workflowID,
		Forest:     &snapshot,
		SeedText:   seedText,
	}

	if from != "" {
		req.Start = []string{from}
	}

	return s.runner.Execute(ctx, req)
}

// CancelRun stops the run in flight at its next node boundary.
func (s *Session) CancelRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRun == nil {
		return ErrNoRunInProgress
	}

	s.cancelRun()

	return nil
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancelRun != nil
}

// Save persists a snapshot of the document. On failure the session document is
// left as it was.
func (s *Session) Save(ctx context.Context) (*models.WorkflowDocument, error) {
	if s.saver == nil {
		return nil, ErrSaveUnavailable
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.Document()

	if err := s.saver.Save(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save workflow", "error", err)

		return nil, err
	}

	s.mu.Lock()
	s.doc.ID = snapshot.ID
	s.doc.CreatedAt = snapshot.CreatedAt
	s.doc.UpdatedAt = snapshot.UpdatedAt
	s.mu.Unlock()

	return snapshot, nil
}
