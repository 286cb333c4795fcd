// Package social maintains the mirrored follow relation on top of two
// independently written records per edge.
package social

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
)

const (
	DefaultMaxRetries = 3
	lockStripes       = 64
)

type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Graph struct {
	records    store.FollowRecords
	users      UserGetter
	maxRetries uint64
	newBackOff func() backoff.BackOff
	locks      [lockStripes]sync.Mutex
}

type Option func(*Graph)

func WithMaxRetries(n int) Option {
	return func(g *Graph) {
		if n >= 0 {
			g.maxRetries = uint64(n)
		}
	}
}

// WithBackOff overrides the delay policy between step-2 retries.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(g *Graph) { g.newBackOff = f }
}

func NewGraph(records store.FollowRecords, users UserGetter, opts ...Option) *Graph {
	g := &Graph{
		records:    records,
		users:      users,
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Follow makes actor follow target. Step 1 writes actor's following record,
// step 2 the target's follower record. If step 2 keeps failing, step 1 is
// rolled back when this call created it, so the whole call can be retried.
func (g *Graph) Follow(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return apperr.InvalidOperation("You cannot follow yourself")
	}
	if _, err := g.users.GetUser(ctx, target); err != nil {
		return err
	}

	mu := g.pairLock(actor, target)
	mu.Lock()
	defer mu.Unlock()

	changed, err := g.records.AddFollowing(ctx, actor, target)
	if err != nil {
		return err
	}

	err = g.retry(ctx, func() error {
		return g.records.AddFollower(ctx, target, actor)
	})
	if err == nil {
		return nil
	}

	if changed {
		if _, cerr := g.records.RemoveFollowing(ctx, actor, target); cerr != nil {
			slog.Error("follow compensation failed",
				"action", "follow",
				"user_id", actor.String(),
				"target_id", target.String(),
				"error", cerr.Error(),
			)
		}
	}
	return err
}

// Unfollow is the mirror of Follow. Unfollowing someone not followed is a no-op.
func (g *Graph) Unfollow(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return apperr.InvalidOperation("You cannot unfollow yourself")
	}
	if _, err := g.users.GetUser(ctx, target); err != nil {
		return err
	}

	mu := g.pairLock(actor, target)
	mu.Lock()
	defer mu.Unlock()

	changed, err := g.records.RemoveFollowing(ctx, actor, target)
	if err != nil {
		return err
	}

	err = g.retry(ctx, func() error {
		return g.records.RemoveFollower(ctx, target, actor)
	})
	if err == nil {
		return nil
	}

	if changed {
		if _, cerr := g.records.AddFollowing(ctx, actor, target); cerr != nil {
			slog.Error("unfollow compensation failed",
				"action", "unfollow",
				"user_id", actor.String(),
				"target_id", target.String(),
				"error", cerr.Error(),
			)
		}
	}
	return err
}

func (g *Graph) GetFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return g.records.Following(ctx, userID)
}

func (g *Graph) GetFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return g.records.Followers(ctx, userID)
}

func (g *Graph) retry(ctx context.Context, op func() error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), g.maxRetries), ctx)
	return backoff.Retry(op, b)
}

// pairLock serializes follow and unfollow of the same unordered pair within
// this process.
func (g *Graph) pairLock(a, b uuid.UUID) *sync.Mutex {
	lo, hi := a, b
	if string(hi[:]) < string(lo[:]) {
		lo, hi = hi, lo
	}
	h := fnv.New32a()
	h.Write(lo[:])
	h.Write(hi[:])
	return &g.locks[h.Sum32()%lockStripes]
}
