package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/layout"
)

// Manager is a concurrency-safe registry of live sessions.
type Manager struct {
	log       *zap.Logger
	analyzer  ai.Analyzer
	projector *layout.Projector

	mu              sync.Mutex
	sessions        map[string]*Session
	defaultInterval time.Duration
}

// NewManager creates an empty registry wiring every new session to the
// given analyzer and projector.
func NewManager(analyzer ai.Analyzer, projector *layout.Projector, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:       log,
		analyzer:  analyzer,
		projector: projector,
		sessions:  map[string]*Session{},
	}
}

// SetDefaultInterval sets the auto-play period applied to sessions created
// afterwards. Zero keeps the playback package default.
func (m *Manager) SetDefaultInterval(d time.Duration) {
	m.mu.Lock()
	m.defaultInterval = d
	m.mu.Unlock()
}

// Create registers a fresh session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.analyzer, m.projector, m.log)

	m.mu.Lock()
	if m.defaultInterval > 0 {
		s.player.SetInterval(m.defaultInterval)
	}
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.log.Info("session created",
		zap.String("session", s.ID),
		zap.Int("active_sessions", count),
	)
	return s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes and unregisters a session.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	m.log.Info("session removed", zap.String("session", id))
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears down every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
