package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/social"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
)

const (
	maxNameLength = 100
	maxBioLength  = 500
)

type UserService struct {
	users   store.UserStore
	reports store.ReportStore
	graph   *social.Graph
}

func NewUserService(users store.UserStore, reports store.ReportStore, graph *social.Graph) *UserService {
	return &UserService{users: users, reports: reports, graph: graph}
}

// Profile returns the public profile with follow sets, report counts and the
// derived impact score.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*dto.ProfileResponse, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := s.graph.GetFollowers(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := s.graph.GetFollowing(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.reports.OwnerStats(ctx, id)
	if err != nil {
		return nil, err
	}

	score := ImpactScore(stats)
	return &dto.ProfileResponse{
		User:           u,
		Followers:      nonNil(followers),
		Following:      nonNil(following),
		FollowerCount:  len(followers),
		FollowingCount: len(following),
		ReportCount:    stats.Reports,
		ResolvedCount:  stats.Resolved,
		UpvoteCount:    stats.Upvotes,
		ImpactScore:    score,
		Rank:           ImpactRank(score),
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	var p store.ProfileUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLength {
			return nil, apperr.Validation("name must be between 1 and %d characters", maxNameLength)
		}
		p.Name = &name
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > maxBioLength {
			return nil, apperr.Validation("bio must be at most %d characters", maxBioLength)
		}
		p.Bio = req.Bio
	}
	p.Avatar = req.Avatar
	p.Location = req.Location
	return s.users.UpdateProfile(ctx, id, p)
}

// Bookmarks returns the user's bookmarked reports, most recent first.
// Bookmarks pointing at deleted reports are skipped.
func (s *UserService) Bookmarks(ctx context.Context, id uuid.UUID) ([]models.Report, error) {
	ids, err := s.users.Bookmarks(ctx, id)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ReportsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := attachOwners(ctx, s.reports, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
