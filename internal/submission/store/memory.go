package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"onestop/internal/submission/models"
	"onestop/pkg/platform/sentinel"
)

// InMemoryStore holds submissions in memory. Submissions are never deleted;
// the snapshot manager owns durability.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[uuid.UUID]*models.Submission
}

// New constructs an empty in-memory submission store.
func New() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[uuid.UUID]*models.Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return fmt.Errorf("submission id already exists: %w", sentinel.ErrConflict)
	}
	s.submissions[sub.ID] = sub
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.submissions[id]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
}

// Execute atomically validates and mutates the submission under the store
// lock. The lifecycle engine issues only legal mutations through this.
func (s *InMemoryStore) Execute(_ context.Context, id uuid.UUID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(sub); err != nil {
		return nil, err
	}
	mutate(sub)
	return sub, nil
}

// ListByCitizenPhone returns the submissions filed under the phone, oldest
// first.
func (s *InMemoryStore) ListByCitizenPhone(_ context.Context, phone string) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.CitizenPhone == phone }), nil
}

// ListByDepartment returns the submissions routed to the department.
func (s *InMemoryStore) ListByDepartment(_ context.Context, department string) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.AssignedDepartment == department }), nil
}

// ListByStatus returns the submissions currently in the given status.
func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool { return sub.Status == status }), nil
}

// ListInbox returns the admin triage inbox: NEW plus REJECTED.
func (s *InMemoryStore) ListInbox(_ context.Context) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool {
		return sub.Status == models.StatusNew || sub.Status == models.StatusRejected
	}), nil
}

// ListRouted returns submissions in the routed statuses, optionally filtered
// by department ("" means all departments).
func (s *InMemoryStore) ListRouted(_ context.Context, department string) ([]*models.Submission, error) {
	return s.list(func(sub *models.Submission) bool {
		if !sub.Status.Routed() {
			return false
		}
		return department == "" || sub.AssignedDepartment == department
	}), nil
}

// CountByStatus tallies every submission by status for the dashboards.
func (s *InMemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, sub := range s.submissions {
		counts[sub.Status]++
	}
	return counts, nil
}

func (s *InMemoryStore) list(match func(*models.Submission) bool) []*models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Submission, 0)
	for _, sub := range s.submissions {
		if match(sub) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Export copies the collection for snapshot persistence.
func (s *InMemoryStore) Export() []models.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, *sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Import replaces the collection from a loaded snapshot.
func (s *InMemoryStore) Import(submissions []models.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = make(map[uuid.UUID]*models.Submission, len(submissions))
	for i := range submissions {
		sub := submissions[i]
		s.submissions[sub.ID] = &sub
	}
}
