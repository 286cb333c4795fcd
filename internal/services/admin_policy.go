package services

import (
	"context"
	"slices"
	"strings"

	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
)

// AdminPolicy decides whether a user has admin rights: either the stored
// role or membership in the configured admin email list.
type AdminPolicy struct {
	users  store.UserStore
	emails []string
}

func NewAdminPolicy(users store.UserStore, emails []string) *AdminPolicy {
	return &AdminPolicy{users: users, emails: emails}
}

func (p *AdminPolicy) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, err := p.users.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin() || slices.Contains(p.emails, strings.ToLower(u.Email)), nil
}
