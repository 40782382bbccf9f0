package tally

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"quorum/internal/ballot"
	"quorum/internal/election"
	"quorum/internal/platform/metrics"
	dErrors "quorum/pkg/domain-errors"
)

// ElectionReader loads an election with its candidate set. Implemented by
// the election service.
type ElectionReader interface {
	Get(ctx context.Context, electionID uuid.UUID) (*election.Election, error)
}

// BallotReader lists committed ballots. Implemented by the ballot store.
type BallotReader interface {
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]*ballot.Ballot, error)
}

// Service folds the ballot log into per-candidate counts.
type Service struct {
	elections ElectionReader
	ballots   BallotReader
	cache     *Cache
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	elections ElectionReader,
	ballots BallotReader,
	cache *Cache,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		elections: elections,
		ballots:   ballots,
		cache:     cache,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Recompute folds every committed ballot into a result. While the election
// is active the result is a provisional snapshot that may miss in-flight
// casts; once completed it is final and stable. Concurrent calls for the
// same election coalesce into one fold.
func (s *Service) Recompute(ctx context.Context, electionID uuid.UUID) (*Result, error) {
	if cached, ok := s.cache.Get(ctx, electionID); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(electionID.String(), func() (any, error) {
		if cached, ok := s.cache.Get(ctx, electionID); ok {
			return cached, nil
		}
		r, err := s.fold(ctx, electionID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate drops any cached tally for the election. Wired into the
// ballot service so every committed cast invalidates before the next read.
func (s *Service) Invalidate(ctx context.Context, electionID uuid.UUID) {
	s.cache.Invalidate(ctx, electionID)
}

func (s *Service) fold(ctx context.Context, electionID uuid.UUID) (*Result, error) {
	e, err := s.elections.Get(ctx, electionID)
	if err != nil {
		return nil, err
	}

	ballots, err := s.ballots.ListByElection(ctx, electionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ballot log")
	}

	votes := make(map[uuid.UUID]int64, len(e.Candidates))
	for _, b := range ballots {
		votes[b.CandidateID]++
	}

	// Counts follow the ballot's candidate order and include zero rows, so
	// the same log always produces the same result.
	counts := make([]CandidateCount, 0, len(e.Candidates))
	var total int64
	for _, c := range e.Candidates {
		n := votes[c.ID]
		counts = append(counts, CandidateCount{CandidateID: c.ID, Name: c.Name, Votes: n})
		total += n
	}
	if total != int64(len(ballots)) {
		// A ballot pointing at a candidate not on the ballot would break
		// conservation. The store constraints make this unreachable.
		s.logger.ErrorContext(ctx, "tally conservation violated",
			"election_id", electionID,
			"ballots", len(ballots),
			"counted", total,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "ballot log inconsistent with candidate set")
	}

	s.metrics.TallyRecomputes.Inc()
	return &Result{
		ElectionID: electionID,
		Counts:     counts,
		Total:      total,
		Final:      e.State == election.StateCompleted,
		ComputedAt: s.now(),
	}, nil
}
