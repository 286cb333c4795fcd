package feed

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
)

// Params are the raw feed query parameters as received from the client.
type Params struct {
	City      string
	State     string
	User      string
	Lat       string
	Lng       string
	Radius    string
	Query     string
	Category  string
	Status    string
	Sort      string
	Following string

	// ActingUserID is the verified caller, nil for anonymous requests.
	ActingUserID *uuid.UUID
}

type FollowingResolver interface {
	GetFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Compiler struct {
	following FollowingResolver
}

func NewCompiler(following FollowingResolver) *Compiler {
	return &Compiler{following: following}
}

// Compile validates p and turns it into a Plan. Validation errors are
// returned before any store access.
func (c *Compiler) Compile(ctx context.Context, p Params) (*Plan, error) {
	plan, followingOnly, err := parse(p)
	if err != nil {
		return nil, err
	}

	if followingOnly {
		if p.ActingUserID == nil {
			return nil, apperr.Unauthorized("Sign in to see reports from people you follow")
		}
		ids, err := c.following.GetFollowing(ctx, *p.ActingUserID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			plan.Empty = true
		}
		plan.Social = &SocialFilter{AuthorIDs: ids}
	}
	return plan, nil
}

func parse(p Params) (*Plan, bool, error) {
	plan := &Plan{}

	lat, lng := strings.TrimSpace(p.Lat), strings.TrimSpace(p.Lng)
	switch {
	case lat != "" && lng != "":
		center, err := parsePoint(lat, lng)
		if err != nil {
			return nil, false, err
		}
		radius := geo.DefaultRadiusMeters
		if r := strings.TrimSpace(p.Radius); r != "" {
			radius, err = strconv.ParseFloat(r, 64)
			if err != nil || radius <= 0 || math.IsInf(radius, 0) || math.IsNaN(radius) {
				return nil, false, apperr.Validation("radius must be a positive number of meters")
			}
		}
		plan.Geo = &GeoFilter{Center: center, RadiusMeters: radius}
	case lat != "" || lng != "":
		return nil, false, apperr.Validation("lat and lng must be provided together")
	default:
		city, state := strings.TrimSpace(p.City), strings.TrimSpace(p.State)
		if city != "" || state != "" {
			plan.Locality = &LocalityFilter{City: city, State: state}
		}
	}

	if u := strings.TrimSpace(p.User); u != "" {
		id, err := uuid.Parse(u)
		if err != nil {
			return nil, false, apperr.Validation("user must be a valid id")
		}
		plan.Owner = &id
	}

	if s := strings.TrimSpace(p.Category); s != "" {
		cat, ok := models.ParseCategory(s)
		if !ok {
			return nil, false, apperr.Validation("unknown category %q", s)
		}
		plan.Category = &cat
	}

	if s := strings.TrimSpace(p.Status); s != "" {
		st, ok := models.ParseStatus(s)
		if !ok {
			return nil, false, apperr.Validation("unknown status %q", s)
		}
		plan.Status = &st
	}

	if q := strings.TrimSpace(p.Query); q != "" {
		plan.Text = NewTextFilter(q)
	}

	sort, err := parseSort(p.Sort, plan.Geo != nil)
	if err != nil {
		return nil, false, err
	}
	plan.Sort = sort
	plan.VerifiedOnly = sort == SortOfficial

	followingOnly := false
	if f := strings.TrimSpace(p.Following); f != "" {
		followingOnly, err = strconv.ParseBool(f)
		if err != nil {
			return nil, false, apperr.Validation("following must be true or false")
		}
	}
	return plan, followingOnly, nil
}

func parsePoint(lat, lng string) (geo.Point, error) {
	la, err1 := strconv.ParseFloat(lat, 64)
	lo, err2 := strconv.ParseFloat(lng, 64)
	p := geo.Point{Lng: lo, Lat: la}
	if err1 != nil || err2 != nil || !p.Valid() {
		return geo.Point{}, apperr.Validation("lat must be within [-90, 90] and lng within [-180, 180]")
	}
	return p, nil
}

func parseSort(s string, hasGeo bool) (SortMode, error) {
	mode := SortMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case "", SortDefault:
		if hasGeo {
			return SortProximity, nil
		}
		return SortNewest, nil
	case SortTrending, SortNewest, SortOfficial, SortProximity:
		return mode, nil
	}
	return "", apperr.Validation("unknown sort %q", s)
}
