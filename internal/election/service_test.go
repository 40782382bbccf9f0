package election

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"quorum/internal/audit"
	dErrors "quorum/pkg/domain-errors"
)

type ElectionServiceSuite struct {
	suite.Suite
	svc *Service
	ctx context.Context
}

func (s *ElectionServiceSuite) SetupTest() {
	s.svc = NewService(
		NewInMemoryStore(),
		audit.NopEmitter{},
		NopInvalidator{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	s.ctx = context.Background()
}

func TestElectionServiceSuite(t *testing.T) {
	suite.Run(t, new(ElectionServiceSuite))
}

func (s *ElectionServiceSuite) createDraft(candidates ...string) *Election {
	var inputs []CandidateInput
	for _, name := range candidates {
		inputs = append(inputs, CandidateInput{Name: name, Affiliation: "independent"})
	}
	e, err := s.svc.Create(s.ctx, "Board Election", "annual board vote", nil, nil, inputs)
	s.Require().NoError(err)
	return e
}

func (s *ElectionServiceSuite) TestCreate() {
	s.Run("creates a draft with candidates", func() {
		e := s.createDraft("Alice", "Bob")
		s.Equal(StateDraft, e.State)
		s.Len(e.Candidates, 2)
	})

	s.Run("requires a title", func() {
		_, err := s.svc.Create(s.ctx, "  ", "", nil, nil, nil)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects inverted schedule", func() {
		start := time.Now()
		end := start.Add(-time.Hour)
		_, err := s.svc.Create(s.ctx, "Backwards", "", &start, &end, nil)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *ElectionServiceSuite) TestActivate() {
	s.Run("fails with a single candidate", func() {
		e := s.createDraft("Alice")
		_, err := s.svc.Activate(s.ctx, e.ID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInsufficientCandidates))
	})

	s.Run("succeeds after adding a second candidate", func() {
		e := s.createDraft("Alice")
		_, err := s.svc.AddCandidate(s.ctx, e.ID, CandidateInput{Name: "Bob"})
		s.Require().NoError(err)

		activated, err := s.svc.Activate(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StateActive, activated.State)
	})

	s.Run("cannot activate twice", func() {
		e := s.createDraft("Alice", "Bob")
		_, err := s.svc.Activate(s.ctx, e.ID)
		s.Require().NoError(err)

		_, err = s.svc.Activate(s.ctx, e.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown election", func() {
		_, err := s.svc.Activate(s.ctx, uuid.New())
		s.True(dErrors.Is(err, dErrors.CodeNoSuchElection))
	})
}

func (s *ElectionServiceSuite) TestComplete() {
	s.Run("active to completed", func() {
		e := s.createDraft("Alice", "Bob")
		_, err := s.svc.Activate(s.ctx, e.ID)
		s.Require().NoError(err)

		completed, err := s.svc.Complete(s.ctx, e.ID)
		s.Require().NoError(err)
		s.Equal(StateCompleted, completed.State)
	})

	s.Run("cannot complete a draft", func() {
		e := s.createDraft("Alice", "Bob")
		_, err := s.svc.Complete(s.ctx, e.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
	})

	s.Run("completed is terminal", func() {
		e := s.createDraft("Alice", "Bob")
		_, err := s.svc.Activate(s.ctx, e.ID)
		s.Require().NoError(err)
		_, err = s.svc.Complete(s.ctx, e.ID)
		s.Require().NoError(err)

		_, err = s.svc.Activate(s.ctx, e.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
		_, err = s.svc.Complete(s.ctx, e.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))
	})
}

// shrinkingStore removes a candidate after the service's count check but
// before the state write, standing in for a racing RemoveCandidate.
type shrinkingStore struct {
	Store
	candidateID uuid.UUID
}

func (s *shrinkingStore) TransitionState(ctx context.Context, id uuid.UUID, from, to LifecycleState) error {
	if err := s.Store.RemoveCandidate(ctx, id, s.candidateID); err != nil {
		return err
	}
	return s.Store.TransitionState(ctx, id, from, to)
}

func (s *ElectionServiceSuite) TestActivateRacingCandidateRemoval() {
	store := NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(store, audit.NopEmitter{}, NopInvalidator{}, logger)

	e, err := svc.Create(s.ctx, "Board Election", "", nil, nil, []CandidateInput{
		{Name: "Alice"}, {Name: "Bob"},
	})
	s.Require().NoError(err)

	racing := NewService(
		&shrinkingStore{Store: store, candidateID: e.Candidates[0].ID},
		audit.NopEmitter{}, NopInvalidator{}, logger,
	)
	_, err = racing.Activate(s.ctx, e.ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInsufficientCandidates))

	current, err := svc.Get(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(StateDraft, current.State)
}

type recordingInvalidator struct {
	ids []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, id uuid.UUID) {
	r.ids = append(r.ids, id)
}

func (s *ElectionServiceSuite) TestTransitionsDropCachedResults() {
	invalidator := &recordingInvalidator{}
	svc := NewService(
		NewInMemoryStore(),
		audit.NopEmitter{},
		invalidator,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	e, err := svc.Create(s.ctx, "Board Election", "", nil, nil, []CandidateInput{
		{Name: "Alice"}, {Name: "Bob"},
	})
	s.Require().NoError(err)

	_, err = svc.Activate(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{e.ID}, invalidator.ids)

	// A result cached while the election was active is provisional and must
	// not be served once the election completes.
	_, err = svc.Complete(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{e.ID, e.ID}, invalidator.ids)

	// Failed transitions leave the cache alone.
	_, err = svc.Activate(s.ctx, e.ID)
	s.Require().Error(err)
	s.Len(invalidator.ids, 2)
}

func (s *ElectionServiceSuite) TestCandidateFreeze() {
	e := s.createDraft("Alice", "Bob")
	_, err := s.svc.Activate(s.ctx, e.ID)
	s.Require().NoError(err)

	_, err = s.svc.AddCandidate(s.ctx, e.ID, CandidateInput{Name: "Carol"})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))

	_, err = s.svc.RemoveCandidate(s.ctx, e.ID, e.Candidates[0].ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInvalidTransition))

	frozen, err := s.svc.Get(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Len(frozen.Candidates, 2)
}

func (s *ElectionServiceSuite) TestCandidateEditsInDraft() {
	e := s.createDraft("Alice", "Bob")

	withCarol, err := s.svc.AddCandidate(s.ctx, e.ID, CandidateInput{Name: "Carol", Affiliation: "green"})
	s.Require().NoError(err)
	s.Len(withCarol.Candidates, 3)

	trimmed, err := s.svc.RemoveCandidate(s.ctx, e.ID, withCarol.Candidates[0].ID)
	s.Require().NoError(err)
	s.Len(trimmed.Candidates, 2)

	_, err = s.svc.AddCandidate(s.ctx, e.ID, CandidateInput{Name: " "})
	s.True(dErrors.Is(err, dErrors.CodeBadRequest))
}

func (s *ElectionServiceSuite) TestListOrdersByCreation() {
	first := s.createDraft("Alice", "Bob")
	second := s.createDraft("Carol", "Dan")

	elections, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(elections, 2)
	s.Equal(first.ID, elections[0].ID)
	s.Equal(second.ID, elections[1].ID)
}
