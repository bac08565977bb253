package snapshot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	identitymodels "onestop/internal/identity/models"
	adminstore "onestop/internal/identity/store/admin"
	citizenstore "onestop/internal/identity/store/citizen"
	submissionmodels "onestop/internal/submission/models"
	submissionstore "onestop/internal/submission/store"
)

type managerFixture struct {
	manager     *Manager
	store       *MemoryStore
	admins      *adminstore.InMemoryStore
	citizens    *citizenstore.InMemoryStore
	submissions *submissionstore.InMemoryStore
}

func newManagerFixture() *managerFixture {
	store := NewMemoryStore()
	admins := adminstore.New()
	citizens := citizenstore.New()
	submissions := submissionstore.New()
	return &managerFixture{
		manager:     NewManager(store, admins, citizens, submissions, slog.New(slog.DiscardHandler)),
		store:       store,
		admins:      admins,
		citizens:    citizens,
		submissions: submissions,
	}
}

func TestLoadFreshInstall(t *testing.T) {
	f := newManagerFixture()
	require.NoError(t, f.manager.Load(context.Background()))

	accounts, err := f.admins.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, accounts)
	require.Zero(t, f.store.Saves())
}

func TestCommitPersistsFullState(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()

	account := identitymodels.NewAdminAccount(uuid.New(), "วิชัย", "กองช่าง", time.Now())
	require.NoError(t, f.admins.Create(ctx, account))
	session := identitymodels.NewCitizenSession(uuid.New(), "สมชาย ใจดี", "0811111111", "", time.Now())
	require.NoError(t, f.citizens.Create(ctx, session))
	sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.submissions.Create(ctx, sub))

	require.NoError(t, f.manager.Commit(ctx))
	require.Equal(t, 1, f.store.Saves())

	snap, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Admins, 1)
	require.Len(t, snap.Citizens, 1)
	require.Len(t, snap.Submissions, 1)
	require.Equal(t, account.ID, snap.Admins[0].ID)
	require.Equal(t, sub.ID, snap.Submissions[0].ID)
}

func TestCommitThenLoadRoundTrip(t *testing.T) {
	first := newManagerFixture()
	ctx := context.Background()

	account := identitymodels.NewAdminAccount(uuid.New(), "วิชัย", "กองช่าง", time.Now())
	account.Status = identitymodels.AdminStatusApproved
	require.NoError(t, first.admins.Create(ctx, account))
	sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now())
	require.NoError(t, err)
	sub.ApplyApproval("กองช่าง")
	require.NoError(t, first.submissions.Create(ctx, sub))
	require.NoError(t, first.manager.Commit(ctx))

	// A second process restarting against the same store sees the state.
	second := newManagerFixture()
	second.manager.store = first.store
	require.NoError(t, second.manager.Load(ctx))

	restored, err := second.admins.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, identitymodels.AdminStatusApproved, restored.Status)

	restoredSub, err := second.submissions.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	require.Equal(t, submissionmodels.StatusReceived, restoredSub.Status)
	require.Equal(t, "กองช่าง", restoredSub.AssignedDepartment)
}

func TestEverySubsequentCommitOverwrites(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()

	require.NoError(t, f.manager.Commit(ctx))
	sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.submissions.Create(ctx, sub))
	require.NoError(t, f.manager.Commit(ctx))

	require.Equal(t, 2, f.store.Saves())
	snap, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Submissions, 1)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/state.json"
	store := NewFileStore(path)
	ctx := context.Background()

	// Missing file reads as a fresh install.
	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Admins)

	sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now().UTC())
	require.NoError(t, err)
	snap.Submissions = append(snap.Submissions, *sub)
	require.NoError(t, store.Save(ctx, snap))

	reloaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Submissions, 1)
	require.Equal(t, sub.ID, reloaded.Submissions[0].ID)
}
