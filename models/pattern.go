package models

import "time"

// PatternAward records a board pattern already granted to a user. The unique
// index is what makes pattern awarding idempotent: a pattern identifier, once
// present for a user, is never inserted again.
type PatternAward struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"not null;uniqueIndex:idx_user_pattern" json:"user_id"`
	PatternID string    `gorm:"not null;uniqueIndex:idx_user_pattern" json:"pattern_id"`
	AwardedAt time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}
