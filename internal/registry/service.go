package registry

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/internal/audit"
	"quorum/internal/platform/metrics"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

// Service orchestrates voter registration and verification review.
type Service struct {
	store   Store
	auditor audit.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, auditor audit.Emitter, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		auditor: auditor,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates a pending voter record. Fails with DuplicateIdentity when
// the external key already has a non-rejected record.
func (s *Service) Register(ctx context.Context, identity Identity, evidence Evidence) (*VoterRecord, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	if evidence.DocumentRef == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "identity document is required")
	}
	if evidence.PhotoRef == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "photo is required")
	}

	record := &VoterRecord{
		ID:          uuid.New(),
		FullName:    strings.TrimSpace(identity.FullName),
		Email:       strings.TrimSpace(identity.Email),
		Phone:       strings.TrimSpace(identity.Phone),
		ExternalKey: strings.TrimSpace(identity.ExternalKey),
		Evidence:    evidence,
		State:       StatePending,
		CreatedAt:   s.now(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateIdentity, "identity key already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save voter record")
	}

	s.metrics.RegistrationsTotal.Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVoterRegistered,
		SubjectID: record.ID,
	})
	return record, nil
}

// ReviewVerification transitions a pending record to verified or rejected.
// Both outcomes are terminal for this registration attempt.
func (s *Service) ReviewVerification(ctx context.Context, voterID uuid.UUID, decision Decision, reason string) (*VoterRecord, error) {
	var next VerificationState
	switch decision {
	case DecisionVerify:
		next = StateVerified
	case DecisionReject:
		next = StateRejected
		if strings.TrimSpace(reason) == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "rejection requires a reason")
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "decision must be verify or reject")
	}

	record, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "voter not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voter record")
	}

	if !record.State.CanTransition(next) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "record is not pending review")
	}

	reviewedAt := s.now()
	record.State = next
	record.ReviewedAt = &reviewedAt
	if next == StateRejected {
		record.RejectionReason = strings.TrimSpace(reason)
	}

	if err := s.store.UpdateReview(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// A concurrent review won the write. The decision on record
			// stands; this one is reported as a failed transition.
			return nil, dErrors.New(dErrors.CodeInvalidTransition, "record is not pending review")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save review decision")
	}

	s.metrics.VerificationDecisions.WithLabelValues(string(next)).Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionVerificationDecided,
		SubjectID: record.ID,
		Detail:    string(next),
	})
	return record, nil
}

// Get returns one voter record.
func (s *Service) Get(ctx context.Context, voterID uuid.UUID) (*VoterRecord, error) {
	record, err := s.store.FindByID(ctx, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "voter not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voter record")
	}
	return record, nil
}

// List returns records for the admin review queue, optionally by state.
func (s *Service) List(ctx context.Context, state VerificationState) ([]*VoterRecord, error) {
	switch state {
	case "", StatePending, StateVerified, StateRejected:
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown verification state filter")
	}
	records, err := s.store.List(ctx, state)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voter records")
	}
	return records, nil
}

// IsEligible reports whether the voter may receive a credential.
func (s *Service) IsEligible(ctx context.Context, voterID uuid.UUID) (bool, error) {
	record, err := s.Get(ctx, voterID)
	if err != nil {
		return false, err
	}
	return record.State == StateVerified, nil
}

func validateIdentity(identity Identity) error {
	if strings.TrimSpace(identity.FullName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	if strings.TrimSpace(identity.ExternalKey) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "identity key is required")
	}
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "email is malformed")
	}
	return nil
}
