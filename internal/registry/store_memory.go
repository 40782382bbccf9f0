package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"quorum/pkg/platform/sentinel"
)

// InMemoryStore keeps voter records behind a RWMutex. It is the dev/test
// store and the reference implementation for the postgres one.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*VoterRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*VoterRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record *VoterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.ExternalKey == record.ExternalKey && existing.State != StateRejected {
			return sentinel.ErrConflict
		}
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemoryStore) UpdateReview(_ context.Context, record *VoterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.State != StatePending {
		return sentinel.ErrInvalidState
	}
	existing.State = record.State
	existing.RejectionReason = record.RejectionReason
	existing.ReviewedAt = record.ReviewedAt
	return nil
}

func (s *InMemoryStore) List(_ context.Context, state VerificationState) ([]*VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*VoterRecord, 0, len(s.records))
	for _, record := range s.records {
		if state != "" && record.State != state {
			continue
		}
		clone := *record
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
