package services

import (
	"context"

	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
)

// attachOwners fills Owner on every report with one store round trip.
// Reports whose owner no longer exists keep a nil Owner.
func attachOwners(ctx context.Context, reports store.ReportStore, rs []models.Report) error {
	if len(rs) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(rs))
	ids := make([]uuid.UUID, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	rows, err := reports.OwnerSummaries(ctx, ids)
	if err != nil {
		return err
	}
	for i := range rs {
		if row, ok := rows[rs[i].UserID]; ok {
			rs[i].Owner = &models.OwnerSummary{
				ID:     row.ID,
				Name:   row.Name,
				Avatar: row.Avatar,
				Rank:   ImpactRank(ImpactScore(row.Stats())),
			}
		}
	}
	return nil
}
