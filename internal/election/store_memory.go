package election

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"quorum/pkg/platform/sentinel"
)

// InMemoryStore keeps elections behind a single RWMutex; the lock is the
// atomicity boundary that keeps candidate edits and state transitions
// consistent.
type InMemoryStore struct {
	mu        sync.RWMutex
	elections map[uuid.UUID]*Election
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{elections: make(map[uuid.UUID]*Election)}
}

func (s *InMemoryStore) Create(_ context.Context, e *Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elections[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.elections[e.ID] = cloneElection(e)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elections[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneElection(e), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Election, 0, len(s.elections))
	for _, e := range s.elections {
		out = append(out, cloneElection(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) AddCandidate(_ context.Context, electionID uuid.UUID, candidate Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elections[electionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.State != StateDraft {
		return sentinel.ErrInvalidState
	}
	e.Candidates = append(e.Candidates, candidate)
	return nil
}

func (s *InMemoryStore) RemoveCandidate(_ context.Context, electionID, candidateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elections[electionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.State != StateDraft {
		return sentinel.ErrInvalidState
	}
	for i, c := range e.Candidates {
		if c.ID == candidateID {
			e.Candidates = append(e.Candidates[:i], e.Candidates[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) TransitionState(_ context.Context, id uuid.UUID, from, to LifecycleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elections[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.State != from {
		return sentinel.ErrInvalidState
	}
	if from == StateDraft && to == StateActive && len(e.Candidates) < MinCandidates {
		return errTooFewCandidates
	}
	e.State = to
	return nil
}

func cloneElection(e *Election) *Election {
	clone := *e
	clone.Candidates = append([]Candidate(nil), e.Candidates...)
	return &clone
}
