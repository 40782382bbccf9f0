package credential

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"quorum/internal/audit"
	"quorum/internal/platform/metrics"
	dErrors "quorum/pkg/domain-errors"
	"quorum/pkg/platform/sentinel"
)

var testMetrics = metrics.New()

type fakeEligibility struct {
	verified map[uuid.UUID]bool
}

func (f *fakeEligibility) IsEligible(_ context.Context, voterID uuid.UUID) (bool, error) {
	eligible, known := f.verified[voterID]
	if !known {
		return false, dErrors.New(dErrors.CodeNotFound, "voter not found")
	}
	return eligible, nil
}

type fakeDirectory struct {
	elections map[uuid.UUID]bool
}

func (f *fakeDirectory) Exists(_ context.Context, electionID uuid.UUID) (bool, error) {
	return f.elections[electionID], nil
}

// collidingStore forces the first N creates to report a code collision.
type collidingStore struct {
	*InMemoryStore
	collisions int
	codes      []string
}

func (s *collidingStore) Create(ctx context.Context, c *Credential) error {
	s.codes = append(s.codes, c.Code)
	if s.collisions > 0 {
		s.collisions--
		return sentinel.ErrConflict
	}
	return s.InMemoryStore.Create(ctx, c)
}

type CredentialServiceSuite struct {
	suite.Suite
	svc        *Service
	store      *InMemoryStore
	verifiedID uuid.UUID
	pendingID  uuid.UUID
	electionID uuid.UUID
	ctx        context.Context
}

func (s *CredentialServiceSuite) SetupTest() {
	s.verifiedID = uuid.New()
	s.pendingID = uuid.New()
	s.electionID = uuid.New()
	s.store = NewInMemoryStore()
	s.svc = NewService(
		s.store,
		&fakeEligibility{verified: map[uuid.UUID]bool{
			s.verifiedID: true,
			s.pendingID:  false,
		}},
		&fakeDirectory{elections: map[uuid.UUID]bool{s.electionID: true}},
		audit.NopEmitter{},
		testMetrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		10,
	)
	s.ctx = context.Background()
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceSuite))
}

func (s *CredentialServiceSuite) TestIssue() {
	s.Run("issues a code for a verified voter", func() {
		c, err := s.svc.Issue(s.ctx, s.verifiedID, s.electionID)
		s.Require().NoError(err)
		s.Len(c.Code, 10)
		s.Equal(s.verifiedID, c.VoterID)
		s.Equal(s.electionID, c.ElectionID)
		s.False(c.Consumed)
	})

	s.Run("refuses a second code for the same voter and election", func() {
		_, err := s.svc.Issue(s.ctx, s.verifiedID, s.electionID)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyIssued))
	})
}

func (s *CredentialServiceSuite) TestIssueNotEligible() {
	_, err := s.svc.Issue(s.ctx, s.pendingID, s.electionID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotEligible))
}

func (s *CredentialServiceSuite) TestIssueUnknownVoter() {
	_, err := s.svc.Issue(s.ctx, uuid.New(), s.electionID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *CredentialServiceSuite) TestIssueUnknownElection() {
	_, err := s.svc.Issue(s.ctx, s.verifiedID, uuid.New())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeNoSuchElection))
}

func (s *CredentialServiceSuite) TestIssueRedrawsOnCollision() {
	store := &collidingStore{InMemoryStore: NewInMemoryStore(), collisions: 2}
	svc := NewService(
		store,
		&fakeEligibility{verified: map[uuid.UUID]bool{s.verifiedID: true}},
		&fakeDirectory{elections: map[uuid.UUID]bool{s.electionID: true}},
		audit.NopEmitter{},
		testMetrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		10,
	)

	c, err := svc.Issue(s.ctx, s.verifiedID, s.electionID)
	s.Require().NoError(err)
	s.Len(store.codes, 3)
	s.NotEqual(store.codes[0], c.Code)
}

func (s *CredentialServiceSuite) TestIssueGivesUpAfterRepeatedCollisions() {
	store := &collidingStore{InMemoryStore: NewInMemoryStore(), collisions: maxCodeAttempts}
	svc := NewService(
		store,
		&fakeEligibility{verified: map[uuid.UUID]bool{s.verifiedID: true}},
		&fakeDirectory{elections: map[uuid.UUID]bool{s.electionID: true}},
		audit.NopEmitter{},
		testMetrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		10,
	)

	_, err := svc.Issue(s.ctx, s.verifiedID, s.electionID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

func (s *CredentialServiceSuite) TestValidate() {
	issued, err := s.svc.Issue(s.ctx, s.verifiedID, s.electionID)
	s.Require().NoError(err)

	s.Run("returns a fresh credential by code", func() {
		c, err := s.svc.Validate(s.ctx, issued.Code)
		s.Require().NoError(err)
		s.Equal(issued.ID, c.ID)
	})

	s.Run("normalizes whitespace and case", func() {
		c, err := s.svc.Validate(s.ctx, "  "+issued.Code+" ")
		s.Require().NoError(err)
		s.Equal(issued.ID, c.ID)
	})

	s.Run("is read-only and repeatable", func() {
		for i := 0; i < 3; i++ {
			_, err := s.svc.Validate(s.ctx, issued.Code)
			s.Require().NoError(err)
		}
	})

	s.Run("rejects an unknown code", func() {
		_, err := s.svc.Validate(s.ctx, "NOSUCHCODE")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidCode))
	})

	s.Run("rejects an empty code", func() {
		_, err := s.svc.Validate(s.ctx, "   ")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a consumed code", func() {
		s.Require().NoError(s.store.Consume(s.ctx, issued.ID))
		_, err := s.svc.Validate(s.ctx, issued.Code)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeAlreadyConsumed))
	})
}

func (s *CredentialServiceSuite) TestIssuedAtIsSet() {
	before := time.Now().Add(-time.Second)
	c, err := s.svc.Issue(s.ctx, s.verifiedID, s.electionID)
	s.Require().NoError(err)
	s.True(c.IssuedAt.After(before))
}
