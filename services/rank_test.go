package services

import "testing"

// TestRankForPoints verifies the tier thresholds, including the exact
// boundary values on each side.
func TestRankForPoints(t *testing.T) {
	cases := []struct {
		name   string
		points int64
		want   string
	}{
		{"zero", 0, RankBeginner},
		{"low", 10, RankBeginner},
		{"just below intermediate", 49, RankBeginner},
		{"intermediate lower bound", 50, RankIntermediate},
		{"mid intermediate", 100, RankIntermediate},
		{"intermediate upper bound", 1250, RankIntermediate},
		{"just above intermediate", 1251, RankExpert},
		{"expert", 5000, RankExpert},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RankForPoints(tc.points); got != tc.want {
				t.Errorf("RankForPoints(%d) = %q, want %q", tc.points, got, tc.want)
			}
		})
	}
}

// TestRankForPointsMonotonic verifies that more points never demote a user.
func TestRankForPointsMonotonic(t *testing.T) {
	order := map[string]int{RankBeginner: 0, RankIntermediate: 1, RankExpert: 2}
	prev := RankForPoints(0)
	for points := int64(1); points <= 2000; points++ {
		cur := RankForPoints(points)
		if order[cur] < order[prev] {
			t.Fatalf("rank demoted from %q to %q at %d points", prev, cur, points)
		}
		prev = cur
	}
}
