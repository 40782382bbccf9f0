package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/internal/ballot"
	"quorum/pkg/testutil"
	dErrors "quorum/pkg/domain-errors"
)

type fakeBallotService struct {
	receipt *ballot.Receipt
	err     error
	gotCode string
}

func (f *fakeBallotService) Cast(_ context.Context, code string, _ uuid.UUID) (*ballot.Receipt, error) {
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func newRouter(svc *fakeBallotService) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleCast(t *testing.T) {
	t.Run("returns the receipt on success", func(t *testing.T) {
		receipt := &ballot.Receipt{
			BallotID:   uuid.New(),
			ElectionID: uuid.New(),
			Sequence:   7,
			CastAt:     time.Now().UTC(),
		}
		svc := &fakeBallotService{receipt: receipt}

		req := testutil.NewJSONRequest(t, http.MethodPost, "/votes", map[string]any{
			"code":         "ABCDEFGHIJ",
			"candidate_id": uuid.New(),
		})
		rec := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		got := testutil.UnmarshalResponse[ballot.Receipt](t, rec)
		assert.Equal(t, receipt.BallotID, got.BallotID)
		assert.Equal(t, int64(7), got.Sequence)
		assert.Equal(t, "ABCDEFGHIJ", svc.gotCode)
	})

	t.Run("maps domain errors to the envelope", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   dErrors.Code
		}{
			{"unknown code", dErrors.New(dErrors.CodeInvalidCode, "unknown voting code"), http.StatusNotFound, dErrors.CodeInvalidCode},
			{"consumed code", dErrors.New(dErrors.CodeAlreadyConsumed, "voting code already used"), http.StatusConflict, dErrors.CodeAlreadyConsumed},
			{"inactive election", dErrors.New(dErrors.CodeElectionNotActive, "election is not accepting ballots"), http.StatusConflict, dErrors.CodeElectionNotActive},
			{"unknown candidate", dErrors.New(dErrors.CodeUnknownCandidate, "candidate is not on this ballot"), http.StatusUnprocessableEntity, dErrors.CodeUnknownCandidate},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := &fakeBallotService{err: tc.err}
				req := testutil.NewJSONRequest(t, http.MethodPost, "/votes", map[string]any{
					"code":         "ABCDEFGHIJ",
					"candidate_id": uuid.New(),
				})
				rec := httptest.NewRecorder()
				newRouter(svc).ServeHTTP(rec, req)

				assert.Equal(t, tc.wantStatus, rec.Code)
				testutil.AssertErrorCode(t, rec, string(tc.wantCode))
			})
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		svc := &fakeBallotService{}
		req := httptest.NewRequest(http.MethodPost, "/votes", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a missing candidate id", func(t *testing.T) {
		svc := &fakeBallotService{}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/votes", map[string]any{"code": "ABCDEFGHIJ"})
		rec := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
