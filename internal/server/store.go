package server

import (
	"sync"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/source"
)

// Workspace is everything the API keeps for one session: the user's
// selection, the loaded table and the records of the last run.
type Workspace struct {
	mu      sync.Mutex
	Session *tabextract.Session
	Table   *source.Table
	Records []tabextract.Record
}

// SessionStore holds workspaces in memory. Sessions are created and deleted
// explicitly by clients.
type SessionStore struct {
	mu    sync.RWMutex
	items map[string]*Workspace
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]*Workspace)}
}

func (s *SessionStore) Create() *Workspace {
	ws := &Workspace{Session: tabextract.NewSession()}
	s.mu.Lock()
	s.items[ws.Session.ID] = ws
	s.mu.Unlock()
	return ws
}

func (s *SessionStore) Get(id string) (*Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.items[id]
	return ws, ok
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
