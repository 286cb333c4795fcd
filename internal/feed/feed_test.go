package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeFollowing struct {
	ids   []uuid.UUID
	err   error
	calls int
}

func (f *fakeFollowing) GetFollowing(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	f.calls++
	return f.ids, f.err
}

type countingSource struct {
	reports []models.Report
	calls   int
}

func (s *countingSource) Candidates(_ context.Context, plan *Plan) ([]models.Report, error) {
	s.calls++
	var out []models.Report
	for i := range s.reports {
		if plan.MatchesAttributes(&s.reports[i]) {
			out = append(out, s.reports[i])
		}
	}
	return out, nil
}

func TestCompileValidation(t *testing.T) {
	c := NewCompiler(&fakeFollowing{})
	ctx := context.Background()

	cases := []struct {
		name string
		p    Params
	}{
		{"lat without lng", Params{Lat: "47.6"}},
		{"lng without lat", Params{Lng: "-122.3"}},
		{"lat out of range", Params{Lat: "91", Lng: "0"}},
		{"lng out of range", Params{Lat: "0", Lng: "-181"}},
		{"non-numeric lat", Params{Lat: "north", Lng: "0"}},
		{"zero radius", Params{Lat: "0", Lng: "0", Radius: "0"}},
		{"negative radius", Params{Lat: "0", Lng: "0", Radius: "-5"}},
		{"bad user id", Params{User: "not-a-uuid"}},
		{"unknown category", Params{Category: "Volcano"}},
		{"unknown status", Params{Status: "archived"}},
		{"unknown sort", Params{Sort: "popular"}},
		{"bad following flag", Params{Following: "maybe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Compile(ctx, tc.p)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestCompileGeoAndDefaults(t *testing.T) {
	c := NewCompiler(&fakeFollowing{})

	plan, err := c.Compile(context.Background(), Params{Lat: "47.6062", Lng: "-122.3321", City: "Seattle"})
	require.NoError(t, err)
	require.NotNil(t, plan.Geo)
	assert.Nil(t, plan.Locality, "geo takes precedence over locality")
	assert.Equal(t, 10_000.0, plan.Geo.RadiusMeters)
	assert.Equal(t, SortProximity, plan.Sort)

	plan, err = c.Compile(context.Background(), Params{City: "Seattle", Sort: "default"})
	require.NoError(t, err)
	assert.Nil(t, plan.Geo)
	assert.Equal(t, &LocalityFilter{City: "Seattle"}, plan.Locality)
	assert.Equal(t, SortNewest, plan.Sort)

	plan, err = c.Compile(context.Background(), Params{Sort: "official", Category: "PublicSafety"})
	require.NoError(t, err)
	assert.True(t, plan.VerifiedOnly)
	assert.Equal(t, models.CategoryPublicSafety, *plan.Category)
}

func TestCompileFollowing(t *testing.T) {
	ctx := context.Background()
	me := uuid.New()

	t.Run("anonymous", func(t *testing.T) {
		_, err := NewCompiler(&fakeFollowing{}).Compile(ctx, Params{Following: "true"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})

	t.Run("empty set short-circuits", func(t *testing.T) {
		plan, err := NewCompiler(&fakeFollowing{}).Compile(ctx, Params{Following: "true", ActingUserID: &me})
		require.NoError(t, err)
		assert.True(t, plan.Empty)
	})

	t.Run("resolver error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewCompiler(&fakeFollowing{err: boom}).Compile(ctx, Params{Following: "1", ActingUserID: &me})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("validation precedes resolution", func(t *testing.T) {
		f := &fakeFollowing{}
		_, err := NewCompiler(f).Compile(ctx, Params{Following: "true", ActingUserID: &me, Lat: "1"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Zero(t, f.calls)
	})
}

func TestTextFilter(t *testing.T) {
	f := NewTextFilter("a.b")
	assert.True(t, f.Matches("xx A.B yy"))
	assert.False(t, f.Matches("axb"), "query is literal, not a pattern")
	assert.Equal(t, `%50\% off\_now%`, NewTextFilter("50% off_now").LikePattern())
}

func TestRankTrending(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	comments := func(n int) datatypes.JSONSlice[models.Comment] {
		return make(datatypes.JSONSlice[models.Comment], n)
	}
	a := models.Report{ID: uuid.New(), Upvotes: 3, Shares: 1, Comments: comments(2), CreatedAt: base}
	b := models.Report{ID: uuid.New(), Upvotes: 7, CreatedAt: base.Add(time.Hour)}
	c := models.Report{ID: uuid.New(), Upvotes: 10, CreatedAt: base}

	assert.Equal(t, 7, TrendingScore(&a))

	reports := []models.Report{a, b, c}
	Rank(reports, SortTrending)
	assert.Equal(t, []uuid.UUID{c.ID, b.ID, a.ID}, ids(reports))
}

func TestRankTieBreak(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lo := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	hi := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	newer := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	reports := []models.Report{
		{ID: hi, CreatedAt: ts},
		{ID: lo, CreatedAt: ts},
		{ID: newer, CreatedAt: ts.Add(time.Minute)},
	}
	for _, mode := range []SortMode{SortTrending, SortProximity, SortNewest, SortOfficial} {
		Rank(reports, mode)
		assert.Equal(t, []uuid.UUID{newer, lo, hi}, ids(reports), mode)
	}
}

func TestRankProximityVerifiedBonus(t *testing.T) {
	ts := time.Now()
	verified := models.Report{ID: uuid.New(), IsVerified: true, CreatedAt: ts}
	popular := models.Report{ID: uuid.New(), Upvotes: 60, Shares: 20, CreatedAt: ts}

	assert.Equal(t, 100, ProximityScore(&verified))
	reports := []models.Report{popular, verified}
	Rank(reports, SortProximity)
	assert.Equal(t, verified.ID, reports[0].ID)
}

func TestAssembleEmptyPlanSkipsSource(t *testing.T) {
	src := &countingSource{reports: []models.Report{{ID: uuid.New()}}}
	res, err := NewAssembler(src).Assemble(context.Background(), &Plan{Empty: true, Sort: SortNewest})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Data)
	assert.Zero(t, src.calls)
}

func TestAssembleFiltersAndRanks(t *testing.T) {
	owner := uuid.New()
	ts := time.Now()
	src := &countingSource{reports: []models.Report{
		{ID: uuid.New(), UserID: owner, Status: models.StatusPending, CreatedAt: ts},
		{ID: uuid.New(), UserID: owner, Status: models.StatusPending, CreatedAt: ts.Add(time.Second)},
		{ID: uuid.New(), UserID: uuid.New(), Status: models.StatusPending, CreatedAt: ts},
		{ID: uuid.New(), UserID: owner, Status: models.StatusResolved, CreatedAt: ts},
	}}
	status := models.StatusPending
	res, err := NewAssembler(src).Assemble(context.Background(), &Plan{Owner: &owner, Status: &status, Sort: SortNewest})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, src.reports[1].ID, res.Data[0].ID)
	assert.Equal(t, 1, src.calls)
}

func ids(reports []models.Report) []uuid.UUID {
	out := make([]uuid.UUID, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}
