//go:build integration

package ballot_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/ballot"
	"quorum/internal/credential"
	"quorum/internal/election"
	"quorum/internal/registry"
	"quorum/pkg/platform/sentinel"
	"quorum/pkg/testutil/containers"
)

type castFixture struct {
	db          *containers.PostgresContainer
	credentials *credential.PostgresStore
	ballots     *ballot.PostgresStore
	castTx      *ballot.SQLCastTx
	electionID  uuid.UUID
	candidateID uuid.UUID
}

func newCastFixture(t *testing.T) *castFixture {
	t.Helper()
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)

	electionStore := election.NewPostgresStore(pc.DB)
	e := &election.Election{
		ID:    uuid.New(),
		Title: "Integration 2026",
		State: election.StateDraft,
		Candidates: []election.Candidate{
			{ID: uuid.New(), Name: "Ada"},
			{ID: uuid.New(), Name: "Grace"},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, electionStore.Create(ctx, e))
	require.NoError(t, electionStore.TransitionState(ctx, e.ID, election.StateDraft, election.StateActive))

	credStore := credential.NewPostgresStore(pc.DB)
	return &castFixture{
		db:          pc,
		credentials: credStore,
		ballots:     ballot.NewPostgresStore(pc.DB),
		castTx:      ballot.NewSQLCastTx(pc.DB, credStore),
		electionID:  e.ID,
		candidateID: e.Candidates[0].ID,
	}
}

// seedCredential registers a verified voter and mints a credential row.
func (f *castFixture) seedCredential(t *testing.T) *credential.Credential {
	t.Helper()
	ctx := context.Background()

	voterStore := registry.NewPostgresStore(f.db.DB)
	voter := &registry.VoterRecord{
		ID:          uuid.New(),
		FullName:    "Voter " + uuid.NewString()[:8],
		Email:       "voter@example.org",
		ExternalKey: uuid.NewString(),
		State:       registry.StateVerified,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, voterStore.Create(ctx, voter))

	c := &credential.Credential{
		ID:         uuid.New(),
		Code:       uuid.NewString()[:10],
		VoterID:    voter.ID,
		ElectionID: f.electionID,
		IssuedAt:   time.Now(),
	}
	require.NoError(t, f.credentials.Create(ctx, c))
	return c
}

func (f *castFixture) newBallot(credentialID uuid.UUID) *ballot.Ballot {
	return &ballot.Ballot{
		ID:           uuid.New(),
		ElectionID:   f.electionID,
		CandidateID:  f.candidateID,
		CredentialID: credentialID,
		CastAt:       time.Now(),
	}
}

func TestSQLCastTxSequences(t *testing.T) {
	f := newCastFixture(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		c := f.seedCredential(t)
		b := f.newBallot(c.ID)
		require.NoError(t, f.castTx.CommitCast(ctx, b))
		assert.Equal(t, want, b.Sequence)

		got, err := f.credentials.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, got.Consumed)
	}

	ballots, err := f.ballots.ListByElection(ctx, f.electionID)
	require.NoError(t, err)
	require.Len(t, ballots, 3)
	for i, b := range ballots {
		assert.Equal(t, int64(i+1), b.Sequence)
	}
}

func TestSQLCastTxSameCredentialLoses(t *testing.T) {
	f := newCastFixture(t)
	ctx := context.Background()
	c := f.seedCredential(t)

	require.NoError(t, f.castTx.CommitCast(ctx, f.newBallot(c.ID)))
	assert.ErrorIs(t, f.castTx.CommitCast(ctx, f.newBallot(c.ID)), sentinel.ErrAlreadyUsed)

	n, err := f.ballots.CountByElection(ctx, f.electionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLCastTxConcurrentSameCredential(t *testing.T) {
	f := newCastFixture(t)
	ctx := context.Background()
	c := f.seedCredential(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.castTx.CommitCast(ctx, f.newBallot(c.ID))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestSQLCastTxConcurrentDistinctCredentials(t *testing.T) {
	f := newCastFixture(t)
	ctx := context.Background()

	const voters = 10
	creds := make([]*credential.Credential, voters)
	for i := range creds {
		creds[i] = f.seedCredential(t)
	}

	var wg sync.WaitGroup
	seqs := make([]int64, voters)
	errs := make([]error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := f.newBallot(creds[i].ID)
			errs[i] = f.castTx.CommitCast(ctx, b)
			seqs[i] = b.Sequence
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]struct{}, voters)
	for i := 0; i < voters; i++ {
		require.NoError(t, errs[i])
		_, dup := seen[seqs[i]]
		assert.False(t, dup, "duplicate sequence %d", seqs[i])
		seen[seqs[i]] = struct{}{}
	}
}
