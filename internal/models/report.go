package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxCommentLength     = 500
)

// Report is a civic-issue report. Counters change only through atomic
// increments and Tags are always derived from Description.
type Report struct {
	ID          uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string                       `gorm:"size:100" json:"title"`
	Description string                       `gorm:"size:1000;not null" json:"description"`
	Category    Category                     `gorm:"size:50;not null;index" json:"category"`
	Status      Status                       `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Tags        datatypes.JSONSlice[string]  `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	ImageURL    string                       `gorm:"type:text" json:"imageUrl"`
	Location    Location                     `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	UserID      uuid.UUID                    `gorm:"type:uuid;not null;index" json:"ownerUserId"`
	Upvotes     int                          `gorm:"not null;default:0;check:upvotes >= 0" json:"upvotes"`
	Shares      int                          `gorm:"not null;default:0;check:shares >= 0" json:"shares"`
	Comments    datatypes.JSONSlice[Comment] `gorm:"type:jsonb;not null;default:'[]'" json:"comments"`
	IsVerified  bool                         `gorm:"not null;default:false;index" json:"isVerified"`
	CreatedAt   time.Time                    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`

	// Owner is filled on read paths; it is not a column.
	Owner *OwnerSummary `gorm:"-" json:"owner,omitempty"`
}

// OwnerSummary is the public view of a report's author shown next to it.
type OwnerSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
	Rank   string    `json:"rank"`
}

func (Report) TableName() string {
	return "reports"
}

// Comment is stored newest-first inside the report. AuthorName and
// AuthorAvatar are a snapshot taken when the comment was posted.
type Comment struct {
	ID           uuid.UUID `json:"id"`
	AuthorID     uuid.UUID `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}
