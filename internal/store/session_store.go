package store

import (
	"encoding/json"
	"sync"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
)

const defaultTitle = "New Chat"
const titleMaxRunes = 30

// SessionStore owns the chat session list and the current-session pointer.
// Every mutation serializes the whole list and replaces the blob. Concurrent
// writers from separate processes are not coordinated; the last writer wins.
type SessionStore struct {
	mu        sync.Mutex
	sessions  []*entity.ChatSession
	currentId string

	blob   Blob
	logger logger.ILogger
}

// NewSessionStore loads the prior list from the blob. A missing or
// unparseable blob yields an empty store, never a partial one.
func NewSessionStore(blob Blob, log logger.ILogger) *SessionStore {
	s := &SessionStore{blob: blob, logger: log}

	data, ok, err := blob.Load()
	if err != nil {
		log.Warn("SessionStore", "Failed to load session blob, starting empty", map[string]interface{}{"error": err.Error()})
		return s
	}
	if !ok {
		return s
	}

	sessions, err := DecodeSessions(data)
	if err != nil {
		log.Warn("SessionStore", "Session blob is unparseable, starting empty", map[string]interface{}{"error": err.Error()})
		return s
	}

	s.sessions = sessions
	if len(sessions) > 0 {
		s.currentId = sessions[0].Id
	}
	return s
}

// CreateSession inserts an empty session at the head of the list and makes it
// current.
func (s *SessionStore) CreateSession() *entity.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &entity.ChatSession{
		Id:        entity.NewTimeID(),
		Title:     defaultTitle,
		Messages:  []*entity.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.sessions = append([]*entity.ChatSession{session}, s.sessions...)
	s.currentId = session.Id
	s.persistLocked()

	return copySession(session)
}

// DeleteSession removes the session. If it was current, the new head of the
// remaining list becomes current (or none when the list is empty).
func (s *SessionStore) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, session := range s.sessions {
		if session.Id != id {
			kept = append(kept, session)
		}
	}
	s.sessions = kept

	if s.currentId == id {
		if len(s.sessions) > 0 {
			s.currentId = s.sessions[0].Id
		} else {
			s.currentId = ""
		}
	}
	s.persistLocked()
}

// AddMessage appends to the named session. The first message also derives the
// session title from its content. Unknown session ids are a silent no-op.
func (s *SessionStore) AddMessage(sessionId string, msg *entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.findLocked(sessionId)
	if session == nil {
		s.logger.Debug("SessionStore", "AddMessage on unknown session ignored", map[string]interface{}{"session_id": sessionId})
		return
	}

	if len(session.Messages) == 0 {
		session.Title = deriveTitle(msg.Content)
	}
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = time.Now()
	s.persistLocked()
}

func (s *SessionStore) Get(id string) (*entity.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session := s.findLocked(id); session != nil {
		return copySession(session), true
	}
	return nil, false
}

func (s *SessionStore) GetCurrent() (*entity.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentId == "" {
		return nil, false
	}
	if session := s.findLocked(s.currentId); session != nil {
		return copySession(session), true
	}
	return nil, false
}

// SetCurrent points the store at an existing session; ok=false if unknown.
func (s *SessionStore) SetCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return false
	}
	s.currentId = id
	return true
}

// Sessions returns the list in insertion order (newest first).
func (s *SessionStore) Sessions() []*entity.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, copySession(session))
	}
	return out
}

// DecodeSessions parses a serialized session list as written by
// persistLocked.
func DecodeSessions(data []byte) ([]*entity.ChatSession, error) {
	var sessions []*entity.ChatSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionStore) findLocked(id string) *entity.ChatSession {
	for _, session := range s.sessions {
		if session.Id == id {
			return session
		}
	}
	return nil
}

func (s *SessionStore) persistLocked() {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		s.logger.Error("SessionStore", "Failed to marshal session list", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.blob.Save(data); err != nil {
		s.logger.Error("SessionStore", "Failed to persist session blob", map[string]interface{}{"error": err.Error()})
	}
}

// deriveTitle takes the first 30 runes of the first message, appending an
// ellipsis when truncated.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= titleMaxRunes {
		return content
	}
	return string(runes[:titleMaxRunes]) + "…"
}

// copySession hands callers a snapshot so nothing outside the store mutates
// its data.
func copySession(session *entity.ChatSession) *entity.ChatSession {
	out := *session
	out.Messages = make([]*entity.Message, len(session.Messages))
	copy(out.Messages, session.Messages)
	return &out
}
