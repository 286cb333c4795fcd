package feed

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/civix-app/civix-server/internal/models"
)

const verifiedBonus = 100

func TrendingScore(r *models.Report) int {
	return r.Upvotes + 2*r.Shares + len(r.Comments)
}

func ProximityScore(r *models.Report) int {
	score := r.Upvotes + 2*r.Shares
	if r.IsVerified {
		score += verifiedBonus
	}
	return score
}

// Rank orders reports in place for mode. Equal scores fall back to
// createdAt descending, then id ascending, so the order is total.
func Rank(reports []models.Report, mode SortMode) {
	var score func(*models.Report) int
	switch mode {
	case SortTrending:
		score = TrendingScore
	case SortProximity:
		score = ProximityScore
	}

	slices.SortFunc(reports, func(a, b models.Report) int {
		if score != nil {
			if c := cmp.Compare(score(&b), score(&a)); c != 0 {
				return c
			}
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}
