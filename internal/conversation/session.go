package conversation

import "sync"

// Session is the per-chat dialog record. The cart lives in the backend
// under the chat id, so only the dialog position and the product being
// viewed are kept here.
type Session struct {
	ChatID            int64
	State             State
	SelectedProductID string
}

// Store keeps at most one session per chat.
type Store interface {
	// Get returns the chat's session, or an idle session and false.
	Get(chatID int64) (Session, bool)
	Put(s Session)
	Delete(chatID int64)
	Len() int
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewMemoryStore returns a process-local Store. Sessions do not survive a restart.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]Session)}
}

func (m *memoryStore) Get(chatID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[chatID]; ok {
		return s, true
	}
	return Session{ChatID: chatID, State: StateIdle}, false
}

// Put stores s; a terminal or idle state removes the session instead.
func (m *memoryStore) Put(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.State == StateIdle || s.State.Terminal() {
		delete(m.sessions, s.ChatID)
		return
	}
	m.sessions[s.ChatID] = s
}

func (m *memoryStore) Delete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
