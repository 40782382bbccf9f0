package election

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/internal/audit"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

// ResultInvalidator drops cached tally results when a lifecycle transition
// changes how they may be presented. A result cached while the election was
// active carries a provisional flag that stops being true the moment the
// election completes. Implemented by the tally cache.
type ResultInvalidator interface {
	Invalidate(ctx context.Context, electionID uuid.UUID)
}

type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// Service orchestrates election setup and lifecycle transitions.
type Service struct {
	store   Store
	auditor audit.Emitter
	tallies ResultInvalidator
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, auditor audit.Emitter, tallies ResultInvalidator, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, tallies: tallies, logger: logger, now: time.Now}
}

// CandidateInput carries caller-supplied candidate fields.
type CandidateInput struct {
	Name        string
	Affiliation string
}

// Create builds a draft election, optionally with an initial candidate set.
func (s *Service) Create(ctx context.Context, title, description string, startAt, endAt *time.Time, candidates []CandidateInput) (*Election, error) {
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if startAt != nil && endAt != nil && endAt.Before(*startAt) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "end date precedes start date")
	}

	e := &Election{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		State:       StateDraft,
		StartAt:     startAt,
		EndAt:       endAt,
		CreatedAt:   s.now(),
	}
	for _, in := range candidates {
		candidate, err := newCandidate(in)
		if err != nil {
			return nil, err
		}
		e.Candidates = append(e.Candidates, candidate)
	}

	if err := s.store.Create(ctx, e); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save election")
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:     audit.ActionElectionCreated,
		ElectionID: e.ID,
	})
	return e, nil
}

// AddCandidate appends a candidate. Legal only while the election is draft.
func (s *Service) AddCandidate(ctx context.Context, electionID uuid.UUID, in CandidateInput) (*Election, error) {
	candidate, err := newCandidate(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddCandidate(ctx, electionID, candidate); err != nil {
		return nil, mapCandidateErr(err, "candidate list is frozen after activation")
	}
	return s.Get(ctx, electionID)
}

// RemoveCandidate deletes a candidate. Legal only while the election is draft.
func (s *Service) RemoveCandidate(ctx context.Context, electionID, candidateID uuid.UUID) (*Election, error) {
	if err := s.store.RemoveCandidate(ctx, electionID, candidateID); err != nil {
		return nil, mapCandidateErr(err, "candidate list is frozen after activation")
	}
	return s.Get(ctx, electionID)
}

// Activate moves a draft election to active, freezing its candidate set.
// Requires at least MinCandidates candidates.
func (s *Service) Activate(ctx context.Context, electionID uuid.UUID) (*Election, error) {
	e, err := s.Get(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if len(e.Candidates) < MinCandidates {
		return nil, dErrors.New(dErrors.CodeInsufficientCandidates, "an election needs at least two candidates")
	}

	if err := s.store.TransitionState(ctx, electionID, StateDraft, StateActive); err != nil {
		return nil, mapTransitionErr(err, "election is not in draft")
	}

	s.tallies.Invalidate(ctx, electionID)
	s.auditor.Emit(ctx, audit.Event{
		Action:     audit.ActionElectionActivated,
		ElectionID: electionID,
	})
	return s.Get(ctx, electionID)
}

// Complete moves an active election to completed. Terminal.
func (s *Service) Complete(ctx context.Context, electionID uuid.UUID) (*Election, error) {
	if err := s.store.TransitionState(ctx, electionID, StateActive, StateCompleted); err != nil {
		return nil, mapTransitionErr(err, "election is not active")
	}

	// Drop any provisional result cached before completion; the next read
	// recomputes and carries the final flag.
	s.tallies.Invalidate(ctx, electionID)
	s.auditor.Emit(ctx, audit.Event{
		Action:     audit.ActionElectionCompleted,
		ElectionID: electionID,
	})
	return s.Get(ctx, electionID)
}

// Get returns one election with its candidates.
func (s *Service) Get(ctx context.Context, electionID uuid.UUID) (*Election, error) {
	e, err := s.store.FindByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoSuchElection, "election not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load election")
	}
	return e, nil
}

// Exists reports whether an election is known, in any lifecycle state.
func (s *Service) Exists(ctx context.Context, electionID uuid.UUID) (bool, error) {
	_, err := s.store.FindByID(ctx, electionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load election")
	}
	return true, nil
}

// List returns all elections ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*Election, error) {
	elections, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list elections")
	}
	return elections, nil
}

func newCandidate(in CandidateInput) (Candidate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Candidate{}, dErrors.New(dErrors.CodeBadRequest, "candidate name is required")
	}
	return Candidate{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Affiliation: strings.TrimSpace(in.Affiliation),
	}, nil
}

func mapCandidateErr(err error, frozenMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "election or candidate not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTransition, frozenMsg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update candidates")
	}
}

func mapTransitionErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNoSuchElection, "election not found")
	case errors.Is(err, errTooFewCandidates):
		return dErrors.New(dErrors.CodeInsufficientCandidates, "an election needs at least two candidates")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTransition, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transition election")
	}
}
