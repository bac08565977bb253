//go:build integration

package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	identitymodels "onestop/internal/identity/models"
	submissionmodels "onestop/internal/submission/models"
	"onestop/pkg/testutil/containers"
)

func TestRedisStoreIntegration(t *testing.T) {
	rc := containers.NewRedis(t)
	ctx := context.Background()
	store := NewRedisStore(rc.Client)

	t.Run("missing key reads as fresh install", func(t *testing.T) {
		require.NoError(t, rc.Flush(ctx))
		snap, err := store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.Admins)
		require.Empty(t, snap.Citizens)
		require.Empty(t, snap.Submissions)
	})

	t.Run("save and load round-trip", func(t *testing.T) {
		require.NoError(t, rc.Flush(ctx))

		account := identitymodels.NewAdminAccount(uuid.New(), "วิชัย", "กองช่าง", time.Now().UTC())
		account.Status = identitymodels.AdminStatusApproved
		sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now().UTC())
		require.NoError(t, err)
		sub.ApplyApproval("กองช่าง")

		snap := Empty()
		snap.Admins = append(snap.Admins, *account)
		snap.Submissions = append(snap.Submissions, *sub)
		require.NoError(t, store.Save(ctx, snap))

		reloaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, reloaded.Admins, 1)
		require.Equal(t, identitymodels.AdminStatusApproved, reloaded.Admins[0].Status)
		require.Len(t, reloaded.Submissions, 1)
		require.Equal(t, submissionmodels.StatusReceived, reloaded.Submissions[0].Status)
	})

	t.Run("state lives under the fixed key", func(t *testing.T) {
		require.NoError(t, rc.Flush(ctx))
		require.NoError(t, store.Save(ctx, Empty()))

		raw, err := rc.Client.Get(ctx, "one-stop-service-state").Bytes()
		require.NoError(t, err)

		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Contains(t, decoded, "admins")
		require.Contains(t, decoded, "citizens")
		require.Contains(t, decoded, "submissions")
	})

	t.Run("save replaces the previous snapshot", func(t *testing.T) {
		require.NoError(t, rc.Flush(ctx))

		first := Empty()
		sub, err := submissionmodels.New(uuid.New(), "สมชาย ใจดี", "0811111111", "ท่อประปาแตก", "123 หมู่ 4", "", "", time.Now().UTC())
		require.NoError(t, err)
		first.Submissions = append(first.Submissions, *sub)
		require.NoError(t, store.Save(ctx, first))
		require.NoError(t, store.Save(ctx, Empty()))

		reloaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, reloaded.Submissions)
	})
}
