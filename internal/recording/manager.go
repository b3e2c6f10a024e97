package recording

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tembea/server/domain/repositories"
)

// Options fixes the per-deployment behavior of the recording pipeline.
type Options struct {
	// SpoolDir is where session buffers are written before upload.
	SpoolDir string
	// Audio is the recognition configuration sent with every request.
	Audio repositories.AudioConfig
	// RetainRemoteArtifacts leaves uploaded recordings in the remote
	// store after the session ends. Default policy is to retain them
	// for audit; local temp data is always deleted.
	RetainRemoteArtifacts bool
}

// Manager is the concurrency-safe registry of active sessions. It creates
// a session per connection, routes inbound events to the owning session's
// event channel (preserving per-session order), and removes sessions once
// they reach a terminal state. Independent sessions never block each
// other; registry access is the only shared path.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	storage repositories.BlobStorage
	stt     repositories.SpeechToText
	opts    Options
	logger  *zap.Logger
}

// NewManager creates a session manager backed by the given remote
// collaborators. Both must be safe for concurrent use.
func NewManager(storage repositories.BlobStorage, stt repositories.SpeechToText, opts Options, logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		storage:  storage,
		stt:      stt,
		opts:     opts,
		logger:   logger,
	}
}

// Connect allocates a new session for a connection and returns its ID.
// IDs are never reused, even when the same client reconnects, and the
// remote destination key is derived from the ID so concurrent sessions
// never target the same remote path.
func (m *Manager) Connect(emitter Emitter) (string, error) {
	id := uuid.NewString()

	buffer, err := NewChunkBuffer(m.opts.SpoolDir, id)
	if err != nil {
		return "", err
	}

	session := &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		buffer:       buffer,
		storage:      m.storage,
		stt:          m.stt,
		audio:        m.opts.Audio,
		remoteKey:    "recordings/" + id + ".webm",
		retainRemote: m.opts.RetainRemoteArtifacts,
		emitter:      emitter,
		logger:       m.logger,
		events:       make(chan event, 64),
		done:         make(chan struct{}),
		onTerminal:   m.remove,
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	go session.run()

	m.logger.Info("Session created",
		zap.String("sessionID", id),
		zap.String("spoolPath", buffer.Path()))
	return id, nil
}

// Chunk routes the next ordered audio fragment to its session.
func (m *Manager) Chunk(sessionID string, data []byte) {
	session := m.lookup(sessionID, "chunk")
	if session == nil {
		return
	}
	session.dispatch(chunkEvent{data: data})
}

// Finalize signals that no more chunks will arrive and the pipeline
// should proceed. Idempotent per session.
func (m *Manager) Finalize(sessionID string) {
	session := m.lookup(sessionID, "finalize")
	if session == nil {
		return
	}
	session.dispatch(finalizeEvent{})
}

// Disconnect marks the connection gone. A session still recording is
// closed and discarded; a session already in the pipeline runs to
// completion for cleanup, with its result suppressed.
func (m *Manager) Disconnect(sessionID string) {
	session := m.lookup(sessionID, "disconnect")
	if session == nil {
		return
	}
	// Visible immediately, even to a pipeline already past the point of
	// consuming this event.
	session.disconnected.Store(true)
	session.dispatch(disconnectEvent{})
}

// Get returns the session with the given ID, if it is still registered.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Abandon disconnects every session older than maxAge and returns how
// many were touched. Used by the janitor to reap stale sessions.
func (m *Manager) Abandon(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.RLock()
	var stale []string
	for id, session := range m.sessions {
		if session.CreatedAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.logger.Warn("Abandoning stale session", zap.String("sessionID", id))
		m.Disconnect(id)
	}
	return len(stale)
}

// lookup resolves a session ID, logging and returning nil for unknown or
// already-removed sessions. Events for those are benign no-ops.
func (m *Manager) lookup(sessionID, eventName string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		m.logger.Debug("Event for unknown session",
			zap.String("sessionID", sessionID),
			zap.String("event", eventName))
		return nil
	}
	return session
}

// remove is invoked by a session as the last step of cleanup.
func (m *Manager) remove(session *Session) {
	m.mu.Lock()
	delete(m.sessions, session.ID)
	m.mu.Unlock()

	m.logger.Info("Session removed",
		zap.String("sessionID", session.ID),
		zap.Stringer("state", session.State()),
		zap.Duration("lifetime", time.Since(session.CreatedAt)))
}
