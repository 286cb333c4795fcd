package services

import "github.com/civix-app/civix-server/internal/store"

const (
	RankCivicGuardian     = "Civic Guardian"
	RankCommunityActivist = "Community Activist"
	RankConcernedCitizen  = "Concerned Citizen"
	RankNewcomer          = "Newcomer"
)

// ImpactScore weighs resolved reports highest, then upvotes received, then
// reports filed.
func ImpactScore(st store.OwnerStats) int {
	return st.Resolved*50 + st.Upvotes*10 + st.Reports*5
}

func ImpactRank(score int) string {
	switch {
	case score > 1000:
		return RankCivicGuardian
	case score > 500:
		return RankCommunityActivist
	case score > 100:
		return RankConcernedCitizen
	}
	return RankNewcomer
}
