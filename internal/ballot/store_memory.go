package ballot

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quorum/internal/credential"
	"quorum/pkg/platform/sentinel"
)

// InMemoryStore keeps ballots in per-election append logs with monotonic
// sequence counters.
type InMemoryStore struct {
	mu           sync.RWMutex
	byElection   map[uuid.UUID][]*Ballot
	byCredential map[uuid.UUID]*Ballot
	sequences    map[uuid.UUID]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byElection:   make(map[uuid.UUID][]*Ballot),
		byCredential: make(map[uuid.UUID]*Ballot),
		sequences:    make(map[uuid.UUID]int64),
	}
}

// append assigns the next sequence for the ballot's election and stores a
// copy. Callers hold the per-credential cast lock; the store mutex only
// guards the maps and the sequence counter.
func (s *InMemoryStore) append(b *Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCredential[b.CredentialID]; ok {
		return sentinel.ErrConflict
	}
	s.sequences[b.ElectionID]++
	b.Sequence = s.sequences[b.ElectionID]
	clone := *b
	s.byElection[b.ElectionID] = append(s.byElection[b.ElectionID], &clone)
	s.byCredential[b.CredentialID] = &clone
	return nil
}

func (s *InMemoryStore) ListByElection(_ context.Context, electionID uuid.UUID) ([]*Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballots := s.byElection[electionID]
	out := make([]*Ballot, 0, len(ballots))
	for _, b := range ballots {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryStore) CountByElection(_ context.Context, electionID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byElection[electionID])), nil
}

// numCastShards spreads credential locks across independent mutexes so
// unrelated casts do not contend.
const numCastShards = 128

// InMemoryCastTx serializes casts per credential with sharded mutexes.
// The consumed flag is written first; if the append fails the flag is
// rolled back under the same shard lock, so no observer sees a consumed
// credential without a ballot.
type InMemoryCastTx struct {
	shards      [numCastShards]sync.Mutex
	ballots     *InMemoryStore
	credentials *credential.InMemoryStore
}

func NewInMemoryCastTx(ballots *InMemoryStore, credentials *credential.InMemoryStore) *InMemoryCastTx {
	return &InMemoryCastTx{ballots: ballots, credentials: credentials}
}

func (t *InMemoryCastTx) CommitCast(ctx context.Context, b *Ballot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	shard := hashUUID(b.CredentialID) % numCastShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Cancellation is not honored past this point. The commit either lands
	// or fails on its own terms.
	ctx = context.WithoutCancel(ctx)

	if err := t.credentials.Consume(ctx, b.CredentialID); err != nil {
		return err
	}
	if err := t.ballots.append(b); err != nil {
		t.credentials.Unconsume(ctx, b.CredentialID)
		return err
	}
	return nil
}

// hashUUID is FNV-1a over the raw 16 bytes.
func hashUUID(id uuid.UUID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= fnvPrime
	}
	return h
}
