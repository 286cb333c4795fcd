package social

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("follower write failed")

// flakyStore fails the next `failures` follower-side writes.
type flakyStore struct {
	*memory.Store
	mu       sync.Mutex
	failures int
	attempts int
}

func (f *flakyStore) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures != 0 {
		f.failures--
		return errFlaky
	}
	return nil
}

func (f *flakyStore) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Store.AddFollower(ctx, userID, followerID)
}

func (f *flakyStore) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Store.RemoveFollower(ctx, userID, followerID)
}

func setup(t *testing.T, failures int) (*Graph, *flakyStore, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	s := &flakyStore{Store: memory.New(), failures: failures}
	a := &models.User{Name: "Ann", Email: "ann@example.com"}
	b := &models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, s.CreateUser(ctx, a))
	require.NoError(t, s.CreateUser(ctx, b))

	g := NewGraph(s, s,
		WithMaxRetries(2),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
	return g, s, a.ID, b.ID
}

func assertEdges(t *testing.T, g *Graph, a, b uuid.UUID, following bool) {
	t.Helper()
	ctx := context.Background()
	aFollowing, err := g.GetFollowing(ctx, a)
	require.NoError(t, err)
	bFollowers, err := g.GetFollowers(ctx, b)
	require.NoError(t, err)
	if following {
		assert.Equal(t, []uuid.UUID{b}, aFollowing)
		assert.Equal(t, []uuid.UUID{a}, bFollowers)
		return
	}
	assert.Empty(t, aFollowing)
	assert.Empty(t, bFollowers)
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, _, a, b := setup(t, 0)

	require.NoError(t, g.Follow(ctx, a, b))
	assertEdges(t, g, a, b, true)

	require.NoError(t, g.Follow(ctx, a, b), "already following is a no-op")
	assertEdges(t, g, a, b, true)

	require.NoError(t, g.Unfollow(ctx, a, b))
	assertEdges(t, g, a, b, false)

	require.NoError(t, g.Unfollow(ctx, a, b), "not following is a no-op")
	assertEdges(t, g, a, b, false)
}

func TestFollowSelf(t *testing.T) {
	ctx := context.Background()
	g, _, a, _ := setup(t, 0)

	assert.ErrorIs(t, g.Follow(ctx, a, a), apperr.ErrInvalidOperation)
	following, err := g.GetFollowing(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestFollowUnknownTarget(t *testing.T) {
	g, _, a, _ := setup(t, 0)
	assert.ErrorIs(t, g.Follow(context.Background(), a, uuid.New()), apperr.ErrNotFound)
}

func TestFollowRetriesTransientFailure(t *testing.T) {
	g, s, a, b := setup(t, 2)

	require.NoError(t, g.Follow(context.Background(), a, b))
	assert.Equal(t, 3, s.attempts)
	assertEdges(t, g, a, b, true)
}

func TestFollowCompensatesPersistentFailure(t *testing.T) {
	ctx := context.Background()
	g, s, a, b := setup(t, -1)

	err := g.Follow(ctx, a, b)
	assert.ErrorIs(t, err, errFlaky)
	assertEdges(t, g, a, b, false)

	s.failures = 0
	require.NoError(t, g.Follow(ctx, a, b), "retrying the whole call is safe")
	assertEdges(t, g, a, b, true)
}

func TestUnfollowCompensatesPersistentFailure(t *testing.T) {
	ctx := context.Background()
	g, s, a, b := setup(t, 0)
	require.NoError(t, g.Follow(ctx, a, b))

	s.failures = -1
	assert.ErrorIs(t, g.Unfollow(ctx, a, b), errFlaky)
	assertEdges(t, g, a, b, true)
}

func TestConcurrentFollowUnfollowStaysMirrored(t *testing.T) {
	ctx := context.Background()
	g, _, a, b := setup(t, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); assert.NoError(t, g.Follow(ctx, a, b)) }()
		go func() { defer wg.Done(); assert.NoError(t, g.Unfollow(ctx, a, b)) }()
	}
	wg.Wait()

	aFollowing, err := g.GetFollowing(ctx, a)
	require.NoError(t, err)
	bFollowers, err := g.GetFollowers(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, len(aFollowing), len(bFollowers))
}
