package models

import "strings"

// Category is the closed set of report categories.
type Category string

const (
	CategoryInfrastructure Category = "Infrastructure"
	CategoryPublicSafety   Category = "Public Safety"
	CategoryEnvironment    Category = "Environment"
	CategoryMobility       Category = "Mobility"
	CategoryCar            Category = "Car"
	CategoryRoad           Category = "Road"
	CategoryBuilding       Category = "Building"
	CategoryDirty          Category = "Dirty"
	CategoryPublicIssue    Category = "Public Issue"
	CategoryOther          Category = "Other"
)

var Categories = []Category{
	CategoryInfrastructure,
	CategoryPublicSafety,
	CategoryEnvironment,
	CategoryMobility,
	CategoryCar,
	CategoryRoad,
	CategoryBuilding,
	CategoryDirty,
	CategoryPublicIssue,
	CategoryOther,
}

// ParseCategory accepts the canonical spelling or the compact one
// ("PublicSafety", "PublicIssue") older clients send.
func ParseCategory(s string) (Category, bool) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	for _, c := range Categories {
		if strings.ReplaceAll(string(c), " ", "") == compact {
			return c, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a report.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return st, true
	}
	return "", false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
