// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/durak/network"
)

// Session is one websocket connection. UserID is zero until the client
// identifies; RoomID tracks the room whose snapshots the session receives.
type Session struct {
	ID         string
	Conn       network.Connection
	UserID     int64
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

// SetUser binds the resolved player identity to the session.
func (s *Session) SetUser(userID int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserID = userID
}

// User returns the bound player identity, zero if not identified yet.
func (s *Session) User() int64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.UserID
}

// Send is safe for concurrent use; room broadcasts call it from other
// connections' goroutines.
func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.LastActive = time.Now()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// GetByUserID returns every live session for a player; the same player may
// be connected from more than one client.
func (m *Manager) GetByUserID(userID int64) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.User() == userID {
			result = append(result, session)
		}
	}
	return result
}
