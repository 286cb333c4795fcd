package postgres

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/google/uuid"
)

// gorm rebinds '?' to the dialect's placeholders, so queries handed to
// db.Raw keep squirrel's default format.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var reportColumns = []string{
	"id", "title", "description", "category", "status", "tags", "image_url",
	"location_lng", "location_lat", "location_formatted_address",
	"location_city", "location_state", "location_zipcode",
	"user_id", "upvotes", "shares", "comments", "is_verified",
	"created_at", "updated_at",
}

// feedQuery translates a plan into a single SELECT over reports. The radius
// predicate uses the GiST-indexed geog column.
func feedQuery(plan *feed.Plan) (string, []interface{}, error) {
	q := psql.Select(reportColumns...).From(models.Report{}.TableName())

	switch {
	case plan.Geo != nil:
		q = q.Where(
			"ST_DWithin(geog, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			plan.Geo.Center.Lng, plan.Geo.Center.Lat, plan.Geo.RadiusMeters,
		)
	case plan.Locality != nil:
		if plan.Locality.City != "" {
			q = q.Where(sq.Eq{"location_city": plan.Locality.City})
		}
		if plan.Locality.State != "" {
			q = q.Where(sq.Eq{"location_state": plan.Locality.State})
		}
	}

	if plan.Owner != nil {
		q = q.Where(sq.Eq{"user_id": plan.Owner.String()})
	}
	if plan.Category != nil {
		q = q.Where(sq.Eq{"category": string(*plan.Category)})
	}
	if plan.Status != nil {
		q = q.Where(sq.Eq{"status": string(*plan.Status)})
	}
	if plan.VerifiedOnly {
		q = q.Where(sq.Eq{"is_verified": true})
	}
	if plan.Social != nil {
		q = q.Where(sq.Eq{"user_id": uuidStrings(plan.Social.AuthorIDs)})
	}
	if plan.Text != nil {
		pattern := plan.Text.LikePattern()
		q = q.Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"category": pattern},
		})
	}

	return q.OrderBy("created_at DESC", "id").ToSql()
}

func tagCountsQuery() (string, []interface{}, error) {
	return psql.
		Select("lower(t.tag) AS tag", "count(*) AS count").
		From(models.Report{}.TableName()).
		CrossJoin("jsonb_array_elements_text(tags) AS t(tag)").
		GroupBy("lower(t.tag)").
		ToSql()
}

func ownerStatsQuery(owner uuid.UUID) (string, []interface{}, error) {
	return psql.
		Select(
			"count(*) AS reports",
			"count(*) FILTER (WHERE status = '"+string(models.StatusResolved)+"') AS resolved",
			"COALESCE(sum(upvotes), 0) AS upvotes",
		).
		From(models.Report{}.TableName()).
		Where(sq.Eq{"user_id": owner.String()}).
		ToSql()
}

// ownerSummariesQuery joins users to their reports and aggregates the
// stats behind the impact rank, one row per user.
func ownerSummariesQuery(ids []uuid.UUID) (string, []interface{}, error) {
	return psql.
		Select(
			"u.id AS id",
			"u.name AS name",
			"u.avatar AS avatar",
			"count(r.id) AS reports",
			"count(r.id) FILTER (WHERE r.status = '"+string(models.StatusResolved)+"') AS resolved",
			"COALESCE(sum(r.upvotes), 0) AS upvotes",
		).
		From(models.User{}.TableName()+" u").
		LeftJoin(models.Report{}.TableName()+" r ON r.user_id = u.id").
		Where(sq.Eq{"u.id": uuidStrings(ids)}).
		GroupBy("u.id", "u.name", "u.avatar").
		ToSql()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
