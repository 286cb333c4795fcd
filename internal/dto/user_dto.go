package dto

import (
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name" form:"name"`
	Bio      *string `json:"bio" form:"bio"`
	Avatar   *string `json:"avatar" form:"avatar"`
	Location *string `json:"location" form:"location"`
}

type ProfileResponse struct {
	*models.User
	Followers      []uuid.UUID `json:"followers"`
	Following      []uuid.UUID `json:"following"`
	FollowerCount  int         `json:"followerCount"`
	FollowingCount int         `json:"followingCount"`
	ReportCount    int         `json:"reportCount"`
	ResolvedCount  int         `json:"resolvedCount"`
	UpvoteCount    int         `json:"upvoteCount"`
	ImpactScore    int         `json:"impactScore"`
	Rank           string      `json:"rank"`
}

type BookmarkToggleResponse struct {
	Success    bool        `json:"success"`
	Bookmarked bool        `json:"bookmarked"`
	Bookmarks  []uuid.UUID `json:"bookmarks"`
}
