//go:build integration

// Run with: DATABASE_URL=postgres://... go test -tags integration ./internal/store/postgres/
// The database needs the postgis and pg_trgm extensions available.
package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/database"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	database.DB = db
	require.NoError(t, database.MigrateShared())
	require.NoError(t, database.MigrateSpatial(context.Background()))
	return New(db)
}

func seedUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: uuid.NewString() + "@example.com", PasswordHash: "x", Avatar: name + ".png"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	t.Cleanup(func() {
		s.db.Where("user_id = ?", u.ID).Delete(&models.Bookmark{})
		s.db.Where("user_id = ?", u.ID).Delete(&models.Report{})
		s.db.Delete(&models.User{}, "id = ?", u.ID)
	})
	return u
}

func seedReport(t *testing.T, s *Store, owner uuid.UUID, lng, lat float64) *models.Report {
	t.Helper()
	r := &models.Report{
		Title:       "Pothole",
		Description: "deep #pothole",
		Category:    models.CategoryRoad,
		Status:      models.StatusPending,
		Tags:        []string{"pothole"},
		Location:    models.Location{Lng: &lng, Lat: &lat, City: "Seattle"},
		UserID:      owner,
	}
	require.NoError(t, s.CreateReport(context.Background(), r))
	return r
}

func TestIntegrationConcurrentIncrements(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ann")
	r := seedReport(t, s, u.ID, -122.3321, 47.6062)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Increment(ctx, r.ID, store.CounterUpvotes)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Increment(ctx, r.ID, store.CounterShares)
	require.NoError(t, err)
	assert.Equal(t, n, got.Upvotes, "RETURNING scans the updated row")
	assert.Equal(t, 1, got.Shares)

	_, err = s.Increment(ctx, uuid.New(), store.CounterUpvotes)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIntegrationPrependComment(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ann")
	r := seedReport(t, s, u.ID, -122.3321, 47.6062)

	for _, text := range []string{"older", "newer"} {
		_, err := s.PrependComment(ctx, r.ID, models.Comment{ID: uuid.New(), AuthorID: u.ID, AuthorName: "Ann", AuthorAvatar: "ann.png", Text: text})
		require.NoError(t, err)
	}

	got, err := s.GetReport(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "newer", got.Comments[0].Text)
	assert.Equal(t, "ann.png", got.Comments[1].AuthorAvatar)
}

func TestIntegrationConcurrentBookmarkToggles(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ann")
	r := seedReport(t, s, u.ID, -122.3321, 47.6062)

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ToggleBookmark(ctx, u.ID, r.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	ids, err := s.Bookmarks(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{r.ID}, ids)

	_, err = s.ToggleBookmark(ctx, u.ID, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIntegrationRadiusFeedAndOwners(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "ann")
	near := seedReport(t, s, u.ID, -122.3321, 47.6062)
	seedReport(t, s, u.ID, -73.9857, 40.7484)

	got, err := s.Candidates(ctx, &feed.Plan{
		Geo:   &feed.GeoFilter{Center: geo.Point{Lng: -122.3321, Lat: 47.6062}, RadiusMeters: 10_000},
		Owner: &u.ID,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	rows, err := s.OwnerSummaries(ctx, []uuid.UUID{u.ID})
	require.NoError(t, err)
	assert.Equal(t, store.OwnerRow{ID: u.ID, Name: "ann", Avatar: "ann.png", Reports: 2}, rows[u.ID])
}
