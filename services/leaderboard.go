package services

import (
	"errors"
	"fmt"
	"time"

	"bingo-task-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Leaderboard scopes accepted by Snapshot.
const (
	ScopeTotal   = "total"
	ScopeMonthly = "monthly"
)

type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// Credit adds points to both counters for a user, creating the entry on first
// credit. The increments run as single SQL expressions, so concurrent credits
// for the same user from different approvals never lose an update.
func (s *LeaderboardService) Credit(tx *gorm.DB, userID string, points int64) error {
	if points < 0 {
		return fmt.Errorf("negative credit of %d for %s refused", points, userID)
	}

	// Two first-ever credits for the same user can race; DO NOTHING on the
	// unique index keeps the loser's transaction alive so its increment
	// below lands on the winner's row.
	entry := models.LeaderboardEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		LastReset: time.Now().UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to ensure leaderboard entry for %s: %w", userID, err)
	}

	return tx.Model(&models.LeaderboardEntry{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_points":   gorm.Expr("total_points + ?", points),
			"monthly_points": gorm.Expr("monthly_points + ?", points),
		}).Error
}

// SnapshotEntry is the read shape for leaderboard views, with the rank tier
// computed from lifetime points on every read.
type SnapshotEntry struct {
	UserID        string `json:"user_id"`
	Points        int64  `json:"points"`
	TotalPoints   int64  `json:"total_points"`
	MonthlyPoints int64  `json:"monthly_points"`
	Rank          string `json:"rank"`
}

// Snapshot returns every entry ordered by the scoped point field descending.
// Ties break on user_id ascending so repeated reads are reproducible.
func (s *LeaderboardService) Snapshot(scope string) ([]SnapshotEntry, error) {
	orderField := "total_points"
	if scope == ScopeMonthly {
		orderField = "monthly_points"
	}

	var entries []models.LeaderboardEntry
	if err := s.DB.
		Order(orderField + " DESC, user_id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	snapshot := make([]SnapshotEntry, 0, len(entries))
	for _, e := range entries {
		points := e.TotalPoints
		if scope == ScopeMonthly {
			points = e.MonthlyPoints
		}
		snapshot = append(snapshot, SnapshotEntry{
			UserID:        e.UserID,
			Points:        points,
			TotalPoints:   e.TotalPoints,
			MonthlyPoints: e.MonthlyPoints,
			Rank:          RankForPoints(e.TotalPoints),
		})
	}
	return snapshot, nil
}

// EntryFor returns one user's ledger entry, or a zeroed entry when the user
// has never been credited.
func (s *LeaderboardService) EntryFor(userID string) (models.LeaderboardEntry, error) {
	var entry models.LeaderboardEntry
	err := s.DB.Where("user_id = ?", userID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LeaderboardEntry{UserID: userID}, nil
	}
	return entry, err
}

// ResetMonthly zeroes every monthly counter and stamps last_reset. Lifetime
// totals are untouched.
func (s *LeaderboardService) ResetMonthly() error {
	return s.DB.Model(&models.LeaderboardEntry{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"monthly_points": 0,
			"last_reset":     time.Now().UTC(),
		}).Error
}
