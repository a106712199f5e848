package services

import (
	"testing"

	"bingo-task-system/models"

	"github.com/google/uuid"
)

func seedPlayers(t *testing.T, svc *PlayerService, usernames map[string]string) {
	t.Helper()
	for username, email := range usernames {
		p := models.Player{
			ID:             uuid.NewString(),
			ExternalUserID: uuid.NewString(),
			Username:       username,
			Email:          email,
		}
		if err := svc.DB.Create(&p).Error; err != nil {
			t.Fatalf("seed player %s: %v", username, err)
		}
	}
}

func TestPlayerSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewPlayerService(db)
	seedPlayers(t, svc, map[string]string{
		"alice":  "alice@example.org",
		"albert": "albert@example.org",
		"bob":    "robert@example.org",
	})

	got, err := svc.Search("al", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].Username != "albert" || got[1].Username != "alice" {
		t.Errorf("search(al) = %+v, want albert then alice", got)
	}

	// Email matches count too.
	got, err = svc.Search("robert", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Username != "bob" {
		t.Errorf("search(robert) = %+v, want bob", got)
	}

	// Empty query lists everyone up to the limit.
	got, err = svc.Search("", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("search with limit 2 returned %d players", len(got))
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 50},
		{"abc", 50},
		{"0", 50},
		{"-3", 50},
		{"101", 50},
		{"25", 25},
	}
	for _, tc := range cases {
		if got := ParseLimit(tc.raw, 50); got != tc.want {
			t.Errorf("ParseLimit(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}
