package ballot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/credential"
	"quorum/pkg/platform/sentinel"
)

func seedCredential(t *testing.T, creds *credential.InMemoryStore) *credential.Credential {
	t.Helper()
	c := &credential.Credential{
		ID:         uuid.New(),
		Code:       uuid.NewString()[:10],
		VoterID:    uuid.New(),
		ElectionID: uuid.New(),
		IssuedAt:   time.Now(),
	}
	require.NoError(t, creds.Create(context.Background(), c))
	return c
}

func TestInMemoryCastTxCommit(t *testing.T) {
	ctx := context.Background()
	electionID := uuid.New()

	t.Run("consumes the credential and appends in sequence order", func(t *testing.T) {
		store := NewInMemoryStore()
		creds := credential.NewInMemoryStore()
		castTx := NewInMemoryCastTx(store, creds)

		for want := int64(1); want <= 3; want++ {
			c := seedCredential(t, creds)
			b := &Ballot{
				ID:           uuid.New(),
				ElectionID:   electionID,
				CandidateID:  uuid.New(),
				CredentialID: c.ID,
				CastAt:       time.Now(),
			}
			require.NoError(t, castTx.CommitCast(ctx, b))
			assert.Equal(t, want, b.Sequence)

			got, err := creds.FindByID(ctx, c.ID)
			require.NoError(t, err)
			assert.True(t, got.Consumed)
		}

		ballots, err := store.ListByElection(ctx, electionID)
		require.NoError(t, err)
		require.Len(t, ballots, 3)
		for i, b := range ballots {
			assert.Equal(t, int64(i+1), b.Sequence)
		}
	})

	t.Run("second commit on the same credential loses", func(t *testing.T) {
		store := NewInMemoryStore()
		creds := credential.NewInMemoryStore()
		castTx := NewInMemoryCastTx(store, creds)
		c := seedCredential(t, creds)

		first := &Ballot{ID: uuid.New(), ElectionID: electionID, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
		require.NoError(t, castTx.CommitCast(ctx, first))

		second := &Ballot{ID: uuid.New(), ElectionID: electionID, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
		assert.ErrorIs(t, castTx.CommitCast(ctx, second), sentinel.ErrAlreadyUsed)

		n, err := store.CountByElection(ctx, electionID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rolls back the consume when the append fails", func(t *testing.T) {
		store := NewInMemoryStore()
		creds := credential.NewInMemoryStore()
		castTx := NewInMemoryCastTx(store, creds)
		c := seedCredential(t, creds)

		first := &Ballot{ID: uuid.New(), ElectionID: electionID, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
		require.NoError(t, castTx.CommitCast(ctx, first))

		// Same credential again, but with the consumed flag manually
		// cleared so the append-side uniqueness check is what fails.
		creds.Unconsume(ctx, c.ID)
		second := &Ballot{ID: uuid.New(), ElectionID: electionID, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
		assert.ErrorIs(t, castTx.CommitCast(ctx, second), sentinel.ErrConflict)

		got, err := creds.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, got.Consumed, "failed append must not leave the credential consumed")
	})

	t.Run("refuses to start under a cancelled context", func(t *testing.T) {
		store := NewInMemoryStore()
		creds := credential.NewInMemoryStore()
		castTx := NewInMemoryCastTx(store, creds)
		c := seedCredential(t, creds)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		b := &Ballot{ID: uuid.New(), ElectionID: electionID, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
		assert.ErrorIs(t, castTx.CommitCast(cancelled, b), context.Canceled)

		got, err := creds.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, got.Consumed)
	})

	t.Run("sequences are tracked per election", func(t *testing.T) {
		store := NewInMemoryStore()
		creds := credential.NewInMemoryStore()
		castTx := NewInMemoryCastTx(store, creds)
		otherElection := uuid.New()

		for _, eid := range []uuid.UUID{electionID, otherElection} {
			c := seedCredential(t, creds)
			b := &Ballot{ID: uuid.New(), ElectionID: eid, CandidateID: uuid.New(), CredentialID: c.ID, CastAt: time.Now()}
			require.NoError(t, castTx.CommitCast(ctx, b))
			assert.Equal(t, int64(1), b.Sequence)
		}
	})
}
