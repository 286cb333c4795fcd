package postgres

import (
	"testing"

	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedQueryGeo(t *testing.T) {
	plan := &feed.Plan{
		Geo:  &feed.GeoFilter{Center: geo.Point{Lng: -122.3321, Lat: 47.6062}, RadiusMeters: 10_000},
		Sort: feed.SortProximity,
	}
	sql, args, err := feedQuery(plan)
	require.NoError(t, err)

	assert.Contains(t, sql, "ST_DWithin(geog, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)")
	assert.NotContains(t, sql, "location_city")
	assert.NotContains(t, sql, "SELECT *")
	assert.Equal(t, []interface{}{-122.3321, 47.6062, 10_000.0}, args)
}

func TestFeedQueryAllFilters(t *testing.T) {
	owner := uuid.New()
	friend := uuid.New()
	cat := models.CategoryPublicSafety
	status := models.StatusPending
	plan := &feed.Plan{
		Locality:     &feed.LocalityFilter{City: "Seattle", State: "WA"},
		Owner:        &owner,
		Category:     &cat,
		Status:       &status,
		Text:         feed.NewTextFilter("50%"),
		Social:       &feed.SocialFilter{AuthorIDs: []uuid.UUID{owner, friend}},
		VerifiedOnly: true,
	}
	sql, args, err := feedQuery(plan)
	require.NoError(t, err)

	for _, frag := range []string{
		"location_city = ?",
		"location_state = ?",
		"category = ?",
		"status = ?",
		"is_verified = ?",
		"user_id IN (?,?)",
		"title ILIKE ?",
		"description ILIKE ?",
		"ORDER BY created_at DESC, id",
	} {
		assert.Contains(t, sql, frag)
	}
	assert.Contains(t, args, owner.String())
	assert.Contains(t, args, friend.String())
	assert.Contains(t, args, "Public Safety")
	assert.Contains(t, args, `%50\%%`)
}

func TestTagAndStatsQueries(t *testing.T) {
	sql, _, err := tagCountsQuery()
	require.NoError(t, err)
	assert.Contains(t, sql, "CROSS JOIN jsonb_array_elements_text(tags) AS t(tag)")
	assert.Contains(t, sql, "GROUP BY lower(t.tag)")

	owner := uuid.New()
	sql, args, err := ownerStatsQuery(owner)
	require.NoError(t, err)
	assert.Contains(t, sql, "FILTER (WHERE status = 'resolved')")
	assert.Equal(t, []interface{}{owner.String()}, args)
}

func TestOwnerSummariesQuery(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	sql, args, err := ownerSummariesQuery([]uuid.UUID{a, b})
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM users u LEFT JOIN reports r ON r.user_id = u.id")
	assert.Contains(t, sql, "u.id IN (?,?)")
	assert.Contains(t, sql, "GROUP BY u.id, u.name, u.avatar")
	assert.Equal(t, []interface{}{a.String(), b.String()}, args)
}
