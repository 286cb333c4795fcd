package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;default:'user'" json:"role"`
	Bio          string    `gorm:"size:500" json:"bio"`
	Avatar       string    `gorm:"type:text" json:"avatar"`
	Location     string    `gorm:"size:255" json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Bookmark is one member of a user's bookmark set.
type Bookmark struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReportID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

func (Bookmark) TableName() string {
	return "user_bookmarks"
}

// Following and Follower are the two halves of a follow relation. They are
// written independently; the social graph keeps them mirrored.
type Following struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TargetID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

func (Following) TableName() string {
	return "user_following"
}

type Follower struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time
}

func (Follower) TableName() string {
	return "user_followers"
}
