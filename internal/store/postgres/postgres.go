// Package postgres implements store.Store on PostgreSQL with PostGIS.
package postgres

import (
	"context"
	"errors"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.Store("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.Store("ping", err)
	}
	return nil
}

// classify maps gorm errors into the apperr taxonomy. The db is opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func classify(op string, err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("Record already exists")
	}
	return apperr.Store(op, err)
}

// Reports

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	if r.Tags == nil {
		r.Tags = datatypes.JSONSlice[string]{}
	}
	if r.Comments == nil {
		r.Comments = datatypes.JSONSlice[models.Comment]{}
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	return classify("create report", s.db.WithContext(ctx).Create(r).Error, "")
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, classify("get report", err, "Report not found")
	}
	return &r, nil
}

func (s *Store) UpdateReport(ctx context.Context, id uuid.UUID, u store.ReportUpdate) (*models.Report, error) {
	updates := map[string]interface{}{}
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Tags != nil {
		updates["tags"] = datatypes.NewJSONSlice(u.Tags)
	}
	if u.Category != nil {
		updates["category"] = *u.Category
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.ImageURL != nil {
		updates["image_url"] = *u.ImageURL
	}
	if u.Location != nil {
		updates["location_lng"] = u.Location.Lng
		updates["location_lat"] = u.Location.Lat
		updates["location_formatted_address"] = u.Location.FormattedAddress
		updates["location_city"] = u.Location.City
		updates["location_state"] = u.Location.State
		updates["location_zipcode"] = u.Location.Zipcode
	}
	if u.IsVerified != nil {
		updates["is_verified"] = *u.IsVerified
	}
	if len(updates) == 0 {
		return s.GetReport(ctx, id)
	}
	return s.updateReturning(ctx, "update report", id, updates)
}

func (s *Store) DeleteReport(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Report{}, "id = ?", id)
	if res.Error != nil {
		return classify("delete report", res.Error, "")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Report not found")
	}
	return nil
}

// Increment runs a single UPDATE ... SET counter = counter + 1 RETURNING *,
// so concurrent increments never lose updates.
func (s *Store) Increment(ctx context.Context, id uuid.UUID, counter store.Counter) (*models.Report, error) {
	if !counter.Valid() {
		return nil, apperr.Validation("unknown counter %q", counter)
	}
	col := string(counter)
	return s.updateReturning(ctx, "increment "+col, id, map[string]interface{}{
		col: gorm.Expr(col + " + 1"),
	})
}

// PrependComment concatenates in SQL rather than rewriting the list from a
// prior read.
func (s *Store) PrependComment(ctx context.Context, id uuid.UUID, c models.Comment) (*models.Report, error) {
	head := datatypes.NewJSONSlice([]models.Comment{c})
	return s.updateReturning(ctx, "prepend comment", id, map[string]interface{}{
		"comments": gorm.Expr("?::jsonb || COALESCE(comments, '[]'::jsonb)", head),
	})
}

func (s *Store) updateReturning(ctx context.Context, op string, id uuid.UUID, updates map[string]interface{}) (*models.Report, error) {
	var r models.Report
	res := s.db.WithContext(ctx).
		Model(&r).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, classify(op, res.Error, "Report not found")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Report not found")
	}
	return &r, nil
}

func (s *Store) Candidates(ctx context.Context, plan *feed.Plan) ([]models.Report, error) {
	query, args, err := feedQuery(plan)
	if err != nil {
		return nil, apperr.Store("build feed query", err)
	}
	var reports []models.Report
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&reports).Error; err != nil {
		return nil, apperr.Store("feed query", err)
	}
	return reports, nil
}

func (s *Store) ReportsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Report, error) {
	if len(ids) == 0 {
		return []models.Report{}, nil
	}
	var found []models.Report
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, apperr.Store("reports by ids", err)
	}

	byID := make(map[uuid.UUID]models.Report, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]models.Report, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) OwnerStats(ctx context.Context, owner uuid.UUID) (store.OwnerStats, error) {
	var st store.OwnerStats
	query, args, err := ownerStatsQuery(owner)
	if err != nil {
		return st, apperr.Store("build owner stats query", err)
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&st).Error; err != nil {
		return st, apperr.Store("owner stats", err)
	}
	return st, nil
}

func (s *Store) OwnerSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]store.OwnerRow, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]store.OwnerRow{}, nil
	}
	query, args, err := ownerSummariesQuery(ids)
	if err != nil {
		return nil, apperr.Store("build owner summaries query", err)
	}
	var rows []store.OwnerRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, apperr.Store("owner summaries", err)
	}
	out := make(map[uuid.UUID]store.OwnerRow, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

func (s *Store) TagCounts(ctx context.Context) (map[string]int, error) {
	query, args, err := tagCountsQuery()
	if err != nil {
		return nil, apperr.Store("build tag query", err)
	}
	var rows []struct {
		Tag   string
		Count int
	}
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, apperr.Store("tag counts", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Tag] = r.Count
	}
	return counts, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("Email already registered")
	}
	return classify("create user", err, "")
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, classify("get user", err, "User not found")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "lower(email) = lower(?)", email).Error; err != nil {
		return nil, classify("get user by email", err, "User not found")
	}
	return &u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, p store.ProfileUpdate) (*models.User, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Bio != nil {
		updates["bio"] = *p.Bio
	}
	if p.Avatar != nil {
		updates["avatar"] = *p.Avatar
	}
	if p.Location != nil {
		updates["location"] = *p.Location
	}
	if len(updates) == 0 {
		return s.GetUser(ctx, id)
	}

	var u models.User
	res := s.db.WithContext(ctx).
		Model(&u).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, classify("update profile", res.Error, "User not found")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

// ToggleBookmark locks the user row so concurrent toggles for the same user
// apply one after another.
func (s *Store) ToggleBookmark(ctx context.Context, userID, reportID uuid.UUID) (bool, error) {
	var on bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&u, "id = ?", userID).Error; err != nil {
			return classify("lock user", err, "User not found")
		}

		var n int64
		if err := tx.Model(&models.Report{}).Where("id = ?", reportID).Count(&n).Error; err != nil {
			return apperr.Store("check report", err)
		}
		if n == 0 {
			return apperr.NotFound("Report not found")
		}

		res := tx.Where("user_id = ? AND report_id = ?", userID, reportID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return apperr.Store("remove bookmark", res.Error)
		}
		if res.RowsAffected > 0 {
			on = false
			return nil
		}

		if err := tx.Create(&models.Bookmark{UserID: userID, ReportID: reportID}).Error; err != nil {
			return apperr.Store("add bookmark", err)
		}
		on = true
		return nil
	})
	return on, err
}

func (s *Store) Bookmarks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("report_id", &ids).Error
	if err != nil {
		return nil, apperr.Store("list bookmarks", err)
	}
	return ids, nil
}

// Follow records

func (s *Store) AddFollowing(ctx context.Context, userID, targetID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Following{UserID: userID, TargetID: targetID})
	if res.Error != nil {
		return false, apperr.Store("add following", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) RemoveFollowing(ctx context.Context, userID, targetID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND target_id = ?", userID, targetID).
		Delete(&models.Following{})
	if res.Error != nil {
		return false, apperr.Store("remove following", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) AddFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follower{UserID: userID, FollowerID: followerID}).Error
	if err != nil {
		return apperr.Store("add follower", err)
	}
	return nil
}

func (s *Store) RemoveFollower(ctx context.Context, userID, followerID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND follower_id = ?", userID, followerID).
		Delete(&models.Follower{}).Error
	if err != nil {
		return apperr.Store("remove follower", err)
	}
	return nil
}

func (s *Store) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Following{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("target_id", &ids).Error
	if err != nil {
		return nil, apperr.Store("list following", err)
	}
	return ids, nil
}

func (s *Store) Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Follower{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, apperr.Store("list followers", err)
	}
	return ids, nil
}
