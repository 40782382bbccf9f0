package credential

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/internal/audit"
	"quorum/internal/platform/metrics"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

// EligibilityChecker answers whether a voter may receive a credential.
// Implemented by the registry service.
type EligibilityChecker interface {
	IsEligible(ctx context.Context, voterID uuid.UUID) (bool, error)
}

// ElectionDirectory resolves election existence. Implemented by the
// election service. Issuance needs existence only, not an active state:
// codes are distributed while an election is still in draft.
type ElectionDirectory interface {
	Exists(ctx context.Context, electionID uuid.UUID) (bool, error)
}

// maxCodeAttempts bounds the re-draw loop on code collision. With a 36^10
// space, hitting it means the random source is broken.
const maxCodeAttempts = 5

// Service issues and validates voting credentials.
type Service struct {
	store      Store
	registry   EligibilityChecker
	elections  ElectionDirectory
	auditor    audit.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	codeLength int
	now        func() time.Time
}

func NewService(
	store Store,
	registry EligibilityChecker,
	elections ElectionDirectory,
	auditor audit.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
	codeLength int,
) *Service {
	return &Service{
		store:      store,
		registry:   registry,
		elections:  elections,
		auditor:    auditor,
		metrics:    m,
		logger:     logger,
		codeLength: codeLength,
		now:        time.Now,
	}
}

// Issue mints a credential for a verified voter and an existing election.
// At most one credential ever exists per (voter, election) pair; once it is
// consumed no replacement is issued.
func (s *Service) Issue(ctx context.Context, voterID, electionID uuid.UUID) (*Credential, error) {
	eligible, err := s.registry.IsEligible(ctx, voterID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "voter not found")
		}
		return nil, err
	}
	if !eligible {
		return nil, dErrors.New(dErrors.CodeNotEligible, "voter is not verified")
	}

	exists, err := s.elections.Exists(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNoSuchElection, "election not found")
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateCode(s.codeLength)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
		}

		c := &Credential{
			ID:         uuid.New(),
			Code:       code,
			VoterID:    voterID,
			ElectionID: electionID,
			IssuedAt:   s.now(),
		}
		err = s.store.Create(ctx, c)
		if err == nil {
			s.metrics.CredentialsIssued.Inc()
			s.auditor.Emit(ctx, audit.Event{
				Action:     audit.ActionCredentialIssued,
				ElectionID: electionID,
				SubjectID:  voterID,
			})
			return c, nil
		}
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeAlreadyIssued, "credential already issued for this voter and election")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.WarnContext(ctx, "credential code collision, re-drawing",
				"attempt", attempt+1,
			)
			continue
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save credential")
	}
	return nil, dErrors.New(dErrors.CodeInternal, "exhausted code generation attempts")
}

// Validate resolves a code without consuming it, so re-displaying a ballot
// is idempotent and side-effect free. Consumption happens only inside a
// successful cast.
func (s *Service) Validate(ctx context.Context, code string) (*Credential, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "code is required")
	}

	c, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidCode, "unknown voting code")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up code")
	}
	if c.Consumed {
		return nil, dErrors.New(dErrors.CodeAlreadyConsumed, "voting code already used")
	}
	return c, nil
}
