package admin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"onestop/internal/identity/models"
	"onestop/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this pattern:
// - Return ErrNotFound when the requested account does not exist
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures

// InMemoryStore holds admin accounts in memory. The snapshot manager owns
// durability; this store only guards its map.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.AdminAccount
}

// New constructs an empty in-memory admin account store.
func New() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[uuid.UUID]*models.AdminAccount)}
}

func (s *InMemoryStore) Create(_ context.Context, account *models.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Matches(account.Name, account.Department) {
			return fmt.Errorf("admin account pair already exists: %w", sentinel.ErrConflict)
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return nil, fmt.Errorf("admin account not found: %w", sentinel.ErrNotFound)
}

// FindByPair looks up the account registered for the exact (name, department)
// pair.
func (s *InMemoryStore) FindByPair(_ context.Context, name, department string) (*models.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.Matches(name, department) {
			return account, nil
		}
	}
	return nil, fmt.Errorf("admin account not found: %w", sentinel.ErrNotFound)
}

// Execute atomically validates and mutates the account under the store lock.
func (s *InMemoryStore) Execute(_ context.Context, id uuid.UUID, validate func(*models.AdminAccount) error, mutate func(*models.AdminAccount)) (*models.AdminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("admin account not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	return account, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("admin account not found: %w", sentinel.ErrNotFound)
	}
	delete(s.accounts, id)
	return nil
}

// List returns all accounts ordered by request time, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AdminAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// Export copies the collection for snapshot persistence.
func (s *InMemoryStore) Export() []models.AdminAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AdminAccount, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, *account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out
}

// Import replaces the collection from a loaded snapshot.
func (s *InMemoryStore) Import(accounts []models.AdminAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[uuid.UUID]*models.AdminAccount, len(accounts))
	for i := range accounts {
		account := accounts[i]
		s.accounts[account.ID] = &account
	}
}
