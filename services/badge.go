package services

import (
	"fmt"
	"log"

	"bingo-task-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// OnPatternUnlocked grants every badge mapped to the pattern, once per user.
// Re-invocation with an already-granted pattern is a no-op, never an error.
// Runs on the caller's transaction so grants commit with the approval.
func (s *BadgeService) OnPatternUnlocked(tx *gorm.DB, userID, patternID string) error {
	var badgeTypes []models.BadgeType
	if err := tx.Where("pattern_id = ?", patternID).Find(&badgeTypes).Error; err != nil {
		return fmt.Errorf("failed to look up badges for pattern %s: %w", patternID, err)
	}

	for _, bt := range badgeTypes {
		// Check if already awarded
		var count int64
		if err := tx.Model(&models.UserBadge{}).
			Where("user_id = ? AND badge_type_id = ?", userID, bt.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		userBadge := models.UserBadge{
			ID:          uuid.NewString(),
			UserID:      userID,
			BadgeTypeID: bt.ID,
		}
		if err := tx.Create(&userBadge).Error; err != nil {
			return err
		}
		log.Printf("🎖️ Badge awarded: %s → %s", bt.Name, userID)
	}
	return nil
}

// BadgeView is the profile-facing shape of an awarded badge.
type BadgeView struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url,omitempty"`
	Rarity      string `json:"rarity"`
	PatternID   string `json:"pattern_id"`
	AwardedAt   string `json:"awarded_at"`
}

// UserBadges returns the user's badge collection, newest first.
func (s *BadgeService) UserBadges(userID string) ([]BadgeView, error) {
	var views []BadgeView
	err := s.DB.Model(&models.UserBadge{}).
		Select(`user_badges.id, badge_types.code, badge_types.name, badge_types.description,
			badge_types.icon_url, badge_types.rarity, badge_types.pattern_id, user_badges.awarded_at`).
		Joins("JOIN badge_types ON badge_types.id = user_badges.badge_type_id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at DESC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	return views, nil
}
