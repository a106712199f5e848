package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// BadgeType: static config, seeded from the board's pattern catalog
type BadgeType struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "row-1-complete", "full-house"
	Name        string `gorm:"not null"`             // "Row 1 Complete", "Full House"
	Description string
	IconURL     string `gorm:"type:text"`
	Rarity      string `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	// PatternID is the board pattern that unlocks this badge.
	PatternID string    `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// UserBadge: awarded instance (many-to-many)
type UserBadge struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	UserID      string    `gorm:"index;not null;uniqueIndex:idx_user_badge"`
	BadgeTypeID string    `gorm:"index;not null;uniqueIndex:idx_user_badge"`
	AwardedAt   time.Time `gorm:"autoCreateTime"`
}

// DefaultBadgeCatalog builds one badge per board pattern. Line patterns are
// common, diagonals rare, the full board legendary. Codes are slugified from
// the display name so they stay stable across reseeds.
func DefaultBadgeCatalog(patternIDs []string) []BadgeType {
	badges := make([]BadgeType, 0, len(patternIDs))
	for _, pid := range patternIDs {
		name, desc, rarity := badgeMetaForPattern(pid)
		badges = append(badges, BadgeType{
			Code:        slug.Make(name),
			Name:        name,
			Description: desc,
			Rarity:      rarity,
			PatternID:   pid,
		})
	}
	return badges
}

func badgeMetaForPattern(patternID string) (name, description, rarity string) {
	switch {
	case patternID == "full-board":
		return "Full House", "Completed every task on the board", "legendary"
	case patternID == "diagonal-main":
		return "Crosscut", "Completed the main diagonal", "rare"
	case patternID == "diagonal-anti":
		return "Countercut", "Completed the anti diagonal", "rare"
	case strings.HasPrefix(patternID, "row-"):
		n := strings.TrimPrefix(patternID, "row-")
		return fmt.Sprintf("Row %s Complete", n), fmt.Sprintf("Completed every task in row %s", n), "common"
	case strings.HasPrefix(patternID, "col-"):
		n := strings.TrimPrefix(patternID, "col-")
		return fmt.Sprintf("Column %s Complete", n), fmt.Sprintf("Completed every task in column %s", n), "common"
	}
	return patternID, "Completed the " + patternID + " pattern", "common"
}
