//go:build integration

package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/registry"
	"quorum/pkg/platform/sentinel"
	"quorum/pkg/testutil/containers"
)

func newVoter(externalKey string) *registry.VoterRecord {
	return &registry.VoterRecord{
		ID:          uuid.New(),
		FullName:    "Ada Lovelace",
		Email:       "ada@example.org",
		ExternalKey: externalKey,
		Evidence:    registry.Evidence{DocumentRef: "blob://doc/1", PhotoRef: "blob://photo/1"},
		State:       registry.StatePending,
		CreatedAt:   time.Now(),
	}
}

func TestPostgresStoreVoterLifecycle(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := registry.NewPostgresStore(pc.DB)
	ctx := context.Background()

	t.Run("create and read back", func(t *testing.T) {
		v := newVoter("STU-1001")
		require.NoError(t, store.Create(ctx, v))

		got, err := store.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, v.FullName, got.FullName)
		assert.Equal(t, registry.StatePending, got.State)
		assert.Equal(t, v.Evidence, got.Evidence)
	})

	t.Run("duplicate live external key conflicts", func(t *testing.T) {
		assert.ErrorIs(t, store.Create(ctx, newVoter("STU-1001")), sentinel.ErrConflict)
	})

	t.Run("rejection frees the key for a new registration", func(t *testing.T) {
		v := newVoter("STU-2002")
		require.NoError(t, store.Create(ctx, v))

		now := time.Now()
		v.State = registry.StateRejected
		v.RejectionReason = "illegible document"
		v.ReviewedAt = &now
		require.NoError(t, store.UpdateReview(ctx, v))

		require.NoError(t, store.Create(ctx, newVoter("STU-2002")))
	})

	t.Run("verified key stays blocked", func(t *testing.T) {
		v := newVoter("STU-3003")
		require.NoError(t, store.Create(ctx, v))
		now := time.Now()
		v.State = registry.StateVerified
		v.ReviewedAt = &now
		require.NoError(t, store.UpdateReview(ctx, v))

		assert.ErrorIs(t, store.Create(ctx, newVoter("STU-3003")), sentinel.ErrConflict)
	})

	t.Run("second review decision is refused", func(t *testing.T) {
		v := newVoter("STU-4004")
		require.NoError(t, store.Create(ctx, v))
		now := time.Now()
		v.State = registry.StateVerified
		v.ReviewedAt = &now
		require.NoError(t, store.UpdateReview(ctx, v))

		late := *v
		late.State = registry.StateRejected
		late.RejectionReason = "late reviewer"
		assert.ErrorIs(t, store.UpdateReview(ctx, &late), sentinel.ErrInvalidState)

		got, err := store.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, registry.StateVerified, got.State)
	})

	t.Run("list filters by state", func(t *testing.T) {
		verified, err := store.List(ctx, registry.StateVerified)
		require.NoError(t, err)
		for _, v := range verified {
			assert.Equal(t, registry.StateVerified, v.State)
		}
		require.NotEmpty(t, verified)
	})

	t.Run("unknown voter", func(t *testing.T) {
		_, err := store.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
