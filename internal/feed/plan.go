// Package feed compiles feed requests into plans, resolves them against a
// candidate source and ranks the result.
package feed

import (
	"regexp"
	"strings"

	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
)

type SortMode string

const (
	SortDefault   SortMode = "default"
	SortTrending  SortMode = "trending"
	SortNewest    SortMode = "newest"
	SortOfficial  SortMode = "official"
	SortProximity SortMode = "proximity"
)

type GeoFilter struct {
	Center       geo.Point
	RadiusMeters float64
}

// LocalityFilter matches city and/or state exactly. Empty fields are ignored.
type LocalityFilter struct {
	City  string
	State string
}

// TextFilter is a literal, case-insensitive substring match.
type TextFilter struct {
	Query   string
	pattern *regexp.Regexp
}

func NewTextFilter(q string) *TextFilter {
	return &TextFilter{Query: q, pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(q))}
}

// Matches reports whether any of fields contains the query.
func (f *TextFilter) Matches(fields ...string) bool {
	for _, s := range fields {
		if f.pattern.MatchString(s) {
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern returns the query as a LIKE/ILIKE pattern with wildcards escaped.
func (f *TextFilter) LikePattern() string {
	return "%" + likeEscaper.Replace(f.Query) + "%"
}

// SocialFilter restricts results to reports owned by AuthorIDs.
type SocialFilter struct {
	AuthorIDs []uuid.UUID
}

// Plan is a validated feed query. Geo and Locality are never both set.
type Plan struct {
	Geo          *GeoFilter
	Locality     *LocalityFilter
	Owner        *uuid.UUID
	Category     *models.Category
	Status       *models.Status
	Text         *TextFilter
	Social       *SocialFilter
	VerifiedOnly bool
	Sort         SortMode

	// Empty plans are known to match nothing and must not reach the store.
	Empty bool
}

// MatchesAttributes applies every filter except Geo, which candidate sources
// resolve through their spatial index.
func (p *Plan) MatchesAttributes(r *models.Report) bool {
	if p.Locality != nil {
		if p.Locality.City != "" && r.Location.City != p.Locality.City {
			return false
		}
		if p.Locality.State != "" && r.Location.State != p.Locality.State {
			return false
		}
	}
	if p.Owner != nil && r.UserID != *p.Owner {
		return false
	}
	if p.Category != nil && r.Category != *p.Category {
		return false
	}
	if p.Status != nil && r.Status != *p.Status {
		return false
	}
	if p.VerifiedOnly && !r.IsVerified {
		return false
	}
	if p.Social != nil && !containsID(p.Social.AuthorIDs, r.UserID) {
		return false
	}
	if p.Text != nil && !p.Text.Matches(r.Title, r.Description, string(r.Category)) {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
