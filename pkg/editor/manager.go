package editor

import (
	"log/slog"
	"sync"

	"github.com/dukex/scriptorium/pkg/models"
)

// Manager keeps the open sessions of a process.
type Manager struct {
	logger  *slog.Logger
	actions ActionFinder
	runner  Runner
	saver   Saver
	options Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(logger *slog.Logger, actions ActionFinder, runner Runner, saver Saver, options Options) *Manager {
	return &Manager{
		logger:   logger,
		actions:  actions,
		runner:   runner,
		saver:    saver,
		options:  options,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session on doc, or on an empty document when doc is nil.
func (m *Manager) Open(doc *models.WorkflowDocument) *Session {
	session := NewSession(m.logger, m.actions, m.runner, m.saver, doc, m.options)

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	return session
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Close forgets a session, cancelling its run if one is in flight.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	_ = session.CancelRun()

	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
