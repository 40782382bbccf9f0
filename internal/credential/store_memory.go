package credential

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quorum/pkg/platform/sentinel"
)

type pairKey struct {
	voterID    uuid.UUID
	electionID uuid.UUID
}

// InMemoryStore indexes credentials by id, code, and (voter, election) pair.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*Credential
	byCode  map[string]*Credential
	byPair  map[pairKey]*Credential
	nowFunc func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[uuid.UUID]*Credential),
		byCode:  make(map[string]*Credential),
		byPair:  make(map[pairKey]*Credential),
		nowFunc: time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{voterID: c.VoterID, electionID: c.ElectionID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byCode[c.Code]; ok {
		return sentinel.ErrConflict
	}
	clone := *c
	s.byID[c.ID] = &clone
	s.byCode[c.Code] = &clone
	s.byPair[key] = &clone
	return nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *InMemoryStore) Consume(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Consumed {
		return sentinel.ErrAlreadyUsed
	}
	now := s.nowFunc()
	c.Consumed = true
	c.ConsumedAt = &now
	return nil
}

// Unconsume rolls back a consume inside the memory cast path when the ballot
// append fails after the flag was set. Only the ballot transaction uses it.
func (s *InMemoryStore) Unconsume(_ context.Context, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byID[id]; ok {
		c.Consumed = false
		c.ConsumedAt = nil
	}
}
