package middleware

import "testing"

func TestHasReviewerRole(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  bool
	}{
		{"no roles", nil, false},
		{"player only", []string{"Player"}, false},
		{"developer", []string{"Developer"}, true},
		{"gamekeeper", []string{"GameKeeper"}, true},
		{"mixed", []string{"Player", "GameKeeper"}, true},
		{"case sensitive", []string{"developer"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasReviewerRole(tc.roles); got != tc.want {
				t.Errorf("HasReviewerRole(%v) = %v, want %v", tc.roles, got, tc.want)
			}
		})
	}
}
