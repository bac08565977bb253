package citizen

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"onestop/internal/identity/models"
	"onestop/pkg/platform/sentinel"
)

// InMemoryStore holds citizen session records in memory. Sessions are
// append-only; repeated logins from the same phone create new records.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.CitizenSession
}

// New constructs an empty in-memory citizen session store.
func New() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[uuid.UUID]*models.CitizenSession)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.CitizenSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.CitizenSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		return session, nil
	}
	return nil, fmt.Errorf("citizen session not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("citizen session not found: %w", sentinel.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// List returns all sessions ordered by login time, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.CitizenSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.CitizenSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.Before(out[j].LoginAt) })
	return out, nil
}

// Export copies the collection for snapshot persistence.
func (s *InMemoryStore) Export() []models.CitizenSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CitizenSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginAt.Before(out[j].LoginAt) })
	return out
}

// Import replaces the collection from a loaded snapshot.
func (s *InMemoryStore) Import(sessions []models.CitizenSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[uuid.UUID]*models.CitizenSession, len(sessions))
	for i := range sessions {
		session := sessions[i]
		s.sessions[session.ID] = &session
	}
}
