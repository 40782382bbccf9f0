package ballot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quorum/internal/audit"
	"quorum/internal/credential"
	"quorum/internal/election"
	"quorum/internal/platform/metrics"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

// CredentialValidator resolves a voting code without consuming it.
// Implemented by the credential service.
type CredentialValidator interface {
	Validate(ctx context.Context, code string) (*credential.Credential, error)
}

// ElectionReader loads election state. Implemented by the election service.
type ElectionReader interface {
	Get(ctx context.Context, electionID uuid.UUID) (*election.Election, error)
}

// TallyInvalidator drops cached counts after a ballot commits. Implemented
// by the tally service; a no-op when caching is off.
type TallyInvalidator interface {
	Invalidate(ctx context.Context, electionID uuid.UUID)
}

type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, uuid.UUID) {}

// Service casts and reads ballots.
type Service struct {
	store       Store
	castTx      CastTx
	credentials CredentialValidator
	elections   ElectionReader
	tally       TallyInvalidator
	auditor     audit.Emitter
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(
	store Store,
	castTx CastTx,
	credentials CredentialValidator,
	elections ElectionReader,
	tally TallyInvalidator,
	auditor audit.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:       store,
		castTx:      castTx,
		credentials: credentials,
		elections:   elections,
		tally:       tally,
		auditor:     auditor,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Cast exchanges a valid credential and a candidate choice for a receipt.
// The credential is consumed and the ballot appended in one atomic commit;
// a retry of the same code after a successful commit observes
// AlreadyConsumed rather than a second ballot. The election state is
// checked before the commit, not inside it: a cast already past this check
// when the election completes still lands.
func (s *Service) Cast(ctx context.Context, code string, candidateID uuid.UUID) (*Receipt, error) {
	receipt, err := s.cast(ctx, code, candidateID)
	if err != nil {
		s.metrics.BallotsRejected.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
		return nil, err
	}
	s.metrics.BallotsCast.Inc()
	return receipt, nil
}

func (s *Service) cast(ctx context.Context, code string, candidateID uuid.UUID) (*Receipt, error) {
	cred, err := s.credentials.Validate(ctx, code)
	if err != nil {
		return nil, err
	}

	e, err := s.elections.Get(ctx, cred.ElectionID)
	if err != nil {
		return nil, err
	}
	if e.State != election.StateActive {
		return nil, dErrors.New(dErrors.CodeElectionNotActive, "election is not accepting ballots")
	}
	if !e.HasCandidate(candidateID) {
		return nil, dErrors.New(dErrors.CodeUnknownCandidate, "candidate is not on this ballot")
	}

	b := &Ballot{
		ID:           uuid.New(),
		ElectionID:   cred.ElectionID,
		CandidateID:  candidateID,
		CredentialID: cred.ID,
		CastAt:       s.now(),
	}
	if err := s.castTx.CommitCast(ctx, b); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeAlreadyConsumed, "voting code already used")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "concurrent cast in progress, retry")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNoSuchElection, "election not found")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "cast abandoned before commit")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit ballot")
		}
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:     audit.ActionBallotCast,
		ElectionID: b.ElectionID,
		SubjectID:  b.CredentialID,
	})
	s.tally.Invalidate(ctx, b.ElectionID)

	receipt := b.Receipt()
	return &receipt, nil
}

// Count returns the number of committed ballots for an election.
func (s *Service) Count(ctx context.Context, electionID uuid.UUID) (int64, error) {
	n, err := s.store.CountByElection(ctx, electionID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count ballots")
	}
	return n, nil
}
