package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	adminstore "onestop/internal/identity/store/admin"
	citizenstore "onestop/internal/identity/store/citizen"
	submissionstore "onestop/internal/submission/store"
)

// Manager is the replace-and-persist boundary over the in-memory stores.
// Load hydrates them once at startup; Commit exports the full state and
// writes it to the snapshot store after every mutation. The commit mutex
// serializes writers so two overlapping mutations cannot interleave their
// persists out of order.
type Manager struct {
	mu          sync.Mutex
	store       Store
	admins      *adminstore.InMemoryStore
	citizens    *citizenstore.InMemoryStore
	submissions *submissionstore.InMemoryStore
	logger      *slog.Logger
}

func NewManager(store Store, admins *adminstore.InMemoryStore, citizens *citizenstore.InMemoryStore, submissions *submissionstore.InMemoryStore, logger *slog.Logger) *Manager {
	return &Manager{
		store:       store,
		admins:      admins,
		citizens:    citizens,
		submissions: submissions,
		logger:      logger,
	}
}

// Load reads the snapshot once and hydrates the in-memory stores. A missing
// snapshot yields empty collections.
func (m *Manager) Load(ctx context.Context) error {
	snap, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate state: %w", err)
	}
	m.admins.Import(snap.Admins)
	m.citizens.Import(snap.Citizens)
	m.submissions.Import(snap.Submissions)
	m.logger.Info("state hydrated",
		"admins", len(snap.Admins),
		"citizens", len(snap.Citizens),
		"submissions", len(snap.Submissions),
	)
	return nil
}

// Commit exports the full state and persists it.
func (m *Manager) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Admins:      m.admins.Export(),
		Citizens:    m.citizens.Export(),
		Submissions: m.submissions.Export(),
	}
	if err := m.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
