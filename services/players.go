package services

import (
	"fmt"
	"strconv"
	"strings"

	"bingo-task-system/models"

	"gorm.io/gorm"
)

type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

// PlayerSummary is the directory-facing shape of a mirrored player. The
// external identifier is the one the rest of the system keys on.
type PlayerSummary struct {
	ID             string `json:"id"`
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
}

// Search looks players up by username or email in the local mirror.
// Reviewers use it to find whose board they are moderating.
func (s *PlayerService) Search(query string, limit int) ([]PlayerSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	db := s.DB.Model(&models.Player{}).Limit(limit).Order("username ASC")
	if query != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var players []models.Player
	if err := db.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("player search failed: %w", err)
	}

	res := make([]PlayerSummary, len(players))
	for i, p := range players {
		res[i] = PlayerSummary{
			ID:             p.ID,
			ExternalUserID: p.ExternalUserID,
			Username:       p.Username,
			Email:          p.Email,
		}
	}
	return res, nil
}

// ParseLimit reads a limit query value with bounds, for handlers.
func ParseLimit(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 100 {
		return fallback
	}
	return n
}
