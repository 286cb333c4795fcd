// Package store declares the persistence contracts. Implementations live in
// the memory and postgres subpackages and return apperr-classified errors.
package store

import (
	"context"

	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
)

type Counter string

const (
	CounterUpvotes Counter = "upvotes"
	CounterShares  Counter = "shares"
)

func (c Counter) Valid() bool {
	return c == CounterUpvotes || c == CounterShares
}

// ReportUpdate carries the mutable report fields. Nil fields are left as is.
type ReportUpdate struct {
	Title       *string
	Description *string
	Tags        []string
	Category    *models.Category
	Status      *models.Status
	ImageURL    *string
	Location    *models.Location
	IsVerified  *bool
}

type OwnerStats struct {
	Reports  int
	Resolved int
	Upvotes  int
}

// OwnerRow is a user's public fields together with their report stats.
type OwnerRow struct {
	ID       uuid.UUID
	Name     string
	Avatar   string
	Reports  int
	Resolved int
	Upvotes  int
}

func (o OwnerRow) Stats() OwnerStats {
	return OwnerStats{Reports: o.Reports, Resolved: o.Resolved, Upvotes: o.Upvotes}
}

type ReportStore interface {
	CreateReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	UpdateReport(ctx context.Context, id uuid.UUID, u ReportUpdate) (*models.Report, error)
	DeleteReport(ctx context.Context, id uuid.UUID) error

	// Increment adds one to counter atomically and returns the updated report.
	Increment(ctx context.Context, id uuid.UUID, counter Counter) (*models.Report, error)
	// PrependComment inserts c at the head of the comment list atomically.
	PrependComment(ctx context.Context, id uuid.UUID, c models.Comment) (*models.Report, error)

	feed.CandidateSource
	ReportsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Report, error)
	OwnerStats(ctx context.Context, owner uuid.UUID) (OwnerStats, error)
	// OwnerSummaries returns one row per existing user in ids.
	OwnerSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]OwnerRow, error)
	TagCounts(ctx context.Context) (map[string]int, error)
}

type ProfileUpdate struct {
	Name     *string
	Bio      *string
	Avatar   *string
	Location *string
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, u ProfileUpdate) (*models.User, error)

	// ToggleBookmark flips membership of reportID in the user's bookmark set
	// and reports whether it is now bookmarked.
	ToggleBookmark(ctx context.Context, userID, reportID uuid.UUID) (bool, error)
	// Bookmarks returns bookmarked report ids, most recent first.
	Bookmarks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// FollowRecords are the two independently stored halves of the follow
// relation. Add/Remove on the following side report whether state changed.
type FollowRecords interface {
	AddFollowing(ctx context.Context, userID, targetID uuid.UUID) (bool, error)
	RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) (bool, error)
	AddFollower(ctx context.Context, userID, followerID uuid.UUID) error
	RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error
	Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Store interface {
	ReportStore
	UserStore
	FollowRecords
	Ping(ctx context.Context) error
}
