package dto

import "github.com/civix-app/civix-server/internal/models"

// CreateReportRequest is the body of POST /reports. Tags are never accepted
// from clients.
type CreateReportRequest struct {
	Title       string          `json:"title" form:"title"`
	Description string          `json:"description" form:"description"`
	Category    string          `json:"category" form:"category"`
	ImageURL    string          `json:"imageUrl" form:"imageUrl"`
	Location    models.Location `json:"location" form:"location"`
}

// UpdateReportRequest carries only the fields present in the body.
type UpdateReportRequest struct {
	Title       *string          `json:"title" form:"title"`
	Description *string          `json:"description" form:"description"`
	Category    *string          `json:"category" form:"category"`
	Status      *string          `json:"status" form:"status"`
	ImageURL    *string          `json:"imageUrl" form:"imageUrl"`
	Location    *models.Location `json:"location" form:"location"`
}

type CommentRequest struct {
	Text string `json:"text" form:"text"`
}

type VerifyRequest struct {
	IsVerified *bool `json:"isVerified" form:"isVerified"`
}
