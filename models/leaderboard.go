package models

import "time"

// LeaderboardEntry tracks cumulative and monthly points for one user
// (denormalized for fast ranking reads).
type LeaderboardEntry struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	// TotalPoints only ever grows outside of explicit admin corrections.
	// MonthlyPoints is zeroed on the monthly boundary.
	TotalPoints   int64     `gorm:"not null;default:0" json:"total_points"`
	MonthlyPoints int64     `gorm:"not null;default:0" json:"monthly_points"`
	LastReset     time.Time `json:"last_reset"`

	Timestamps
}
