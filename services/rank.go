package services

// Rank tiers derived solely from lifetime points.
const (
	RankBeginner     = "Beginner"
	RankIntermediate = "Intermediate"
	RankExpert       = "Expert"
)

// RankForPoints maps a point total to its tier. Total and monotonic:
// every non-negative total maps to a tier, and more points never demote.
func RankForPoints(points int64) string {
	switch {
	case points < 50:
		return RankBeginner
	case points <= 1250:
		return RankIntermediate
	default:
		return RankExpert
	}
}
