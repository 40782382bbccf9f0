//go:build integration

package tally_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisplatform "quorum/internal/platform/redis"
	"quorum/internal/tally"
	"quorum/pkg/testutil/containers"
)

func newCache(t *testing.T, ttl time.Duration) *tally.Cache {
	t.Helper()
	rc := containers.NewRedisContainer(t)
	client := &redisplatform.Client{Client: rc.Client}
	return tally.NewCache(client, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleResult(electionID uuid.UUID) *tally.Result {
	return &tally.Result{
		ElectionID: electionID,
		Counts: []tally.CandidateCount{
			{CandidateID: uuid.New(), Name: "Ada", Votes: 3},
			{CandidateID: uuid.New(), Name: "Grace", Votes: 1},
		},
		Total:      4,
		Final:      false,
		ComputedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newCache(t, time.Minute)
	ctx := context.Background()
	electionID := uuid.New()

	_, ok := cache.Get(ctx, electionID)
	assert.False(t, ok, "empty cache must miss")

	want := sampleResult(electionID)
	cache.Set(ctx, want)

	got, ok := cache.Get(ctx, electionID)
	require.True(t, ok)
	assert.Equal(t, want.Counts, got.Counts)
	assert.Equal(t, want.Total, got.Total)
}

func TestCacheInvalidate(t *testing.T) {
	cache := newCache(t, time.Minute)
	ctx := context.Background()
	electionID := uuid.New()

	cache.Set(ctx, sampleResult(electionID))
	cache.Invalidate(ctx, electionID)

	_, ok := cache.Get(ctx, electionID)
	assert.False(t, ok, "invalidated entry must miss")
}

func TestCacheEntriesExpire(t *testing.T) {
	cache := newCache(t, 100*time.Millisecond)
	ctx := context.Background()
	electionID := uuid.New()

	cache.Set(ctx, sampleResult(electionID))
	time.Sleep(300 * time.Millisecond)

	_, ok := cache.Get(ctx, electionID)
	assert.False(t, ok, "expired entry must miss")
}
