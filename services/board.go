package services

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"

	"bingo-task-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cell is one board position, 1-indexed.
type Cell struct {
	Row int
	Col int
}

// Pattern is a named subset of board cells that unlocks a bonus when every
// cell in it holds an approved task.
type Pattern struct {
	ID    string
	Cells []Cell
}

// Board describes the bingo grid. The pattern catalog is derived entirely
// from the dimensions: every row, every column, both diagonals on square
// boards, and the full board.
type Board struct {
	Rows int
	Cols int
}

// BoardFromEnv reads BOARD_ROWS / BOARD_COLS, defaulting to the classic 3x3
// grid when unset or invalid.
func BoardFromEnv() Board {
	rows := envInt("BOARD_ROWS", 3)
	cols := envInt("BOARD_COLS", 3)
	if rows < 1 || cols < 1 {
		log.Printf("⚠️  Invalid board dimensions %dx%d, falling back to 3x3", rows, cols)
		rows, cols = 3, 3
	}
	return Board{Rows: rows, Cols: cols}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Patterns returns the closed pattern set for this board, in a fixed order.
func (b Board) Patterns() []Pattern {
	var patterns []Pattern

	for r := 1; r <= b.Rows; r++ {
		cells := make([]Cell, 0, b.Cols)
		for c := 1; c <= b.Cols; c++ {
			cells = append(cells, Cell{Row: r, Col: c})
		}
		patterns = append(patterns, Pattern{ID: fmt.Sprintf("row-%d", r), Cells: cells})
	}

	for c := 1; c <= b.Cols; c++ {
		cells := make([]Cell, 0, b.Rows)
		for r := 1; r <= b.Rows; r++ {
			cells = append(cells, Cell{Row: r, Col: c})
		}
		patterns = append(patterns, Pattern{ID: fmt.Sprintf("col-%d", c), Cells: cells})
	}

	// Diagonals only exist on square boards.
	if b.Rows == b.Cols {
		main := make([]Cell, 0, b.Rows)
		anti := make([]Cell, 0, b.Rows)
		for i := 1; i <= b.Rows; i++ {
			main = append(main, Cell{Row: i, Col: i})
			anti = append(anti, Cell{Row: i, Col: b.Cols - i + 1})
		}
		patterns = append(patterns,
			Pattern{ID: "diagonal-main", Cells: main},
			Pattern{ID: "diagonal-anti", Cells: anti},
		)
	}

	full := make([]Cell, 0, b.Rows*b.Cols)
	for r := 1; r <= b.Rows; r++ {
		for c := 1; c <= b.Cols; c++ {
			full = append(full, Cell{Row: r, Col: c})
		}
	}
	patterns = append(patterns, Pattern{ID: "full-board", Cells: full})

	return patterns
}

// PatternIDs returns just the identifiers of the board's pattern catalog.
func (b Board) PatternIDs() []string {
	patterns := b.Patterns()
	ids := make([]string, 0, len(patterns))
	for _, p := range patterns {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasPattern reports whether the identifier belongs to this board's catalog.
func (b Board) HasPattern(patternID string) bool {
	for _, id := range b.PatternIDs() {
		if id == patternID {
			return true
		}
	}
	return false
}

// Satisfied computes, from scratch, every pattern whose cells are all covered
// by the approved set. Detection is pure: identical inputs always yield the
// identical sorted output, independent of call history.
func (b Board) Satisfied(approved map[Cell]bool) []string {
	var satisfied []string
	for _, p := range b.Patterns() {
		complete := true
		for _, cell := range p.Cells {
			if !approved[cell] {
				complete = false
				break
			}
		}
		if complete {
			satisfied = append(satisfied, p.ID)
		}
	}
	sort.Strings(satisfied)
	return satisfied
}

// PatternService owns PatternAward records: it diffs freshly detected
// patterns against what a user was already granted and persists the new ones.
type PatternService struct {
	DB    *gorm.DB
	Board Board
}

func NewPatternService(db *gorm.DB, board Board) *PatternService {
	return &PatternService{DB: db, Board: board}
}

// EvaluateBoard detects the user's satisfied patterns from their approved
// cells, grants (inserts) the ones not yet awarded, and returns only those
// newly granted identifiers. Runs on the caller's transaction handle so the
// grants commit together with the approval that triggered them.
func (s *PatternService) EvaluateBoard(tx *gorm.DB, userID string) ([]string, error) {
	var rows []struct {
		GridRow    int
		GridColumn int
	}
	err := tx.Model(&models.UserTask{}).
		Select("tasks.grid_row, tasks.grid_column").
		Joins("JOIN tasks ON tasks.id = user_tasks.task_id").
		Where("user_tasks.user_id = ? AND user_tasks.status = ?", userID, models.TaskStatusApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load approved cells: %w", err)
	}

	approved := make(map[Cell]bool, len(rows))
	for _, r := range rows {
		approved[Cell{Row: r.GridRow, Col: r.GridColumn}] = true
	}

	satisfied := s.Board.Satisfied(approved)
	if len(satisfied) == 0 {
		return nil, nil
	}

	var granted []string
	if err := tx.Model(&models.PatternAward{}).
		Where("user_id = ? AND pattern_id IN ?", userID, satisfied).
		Pluck("pattern_id", &granted).Error; err != nil {
		return nil, fmt.Errorf("failed to load granted patterns: %w", err)
	}
	already := make(map[string]bool, len(granted))
	for _, id := range granted {
		already[id] = true
	}

	var fresh []string
	for _, id := range satisfied {
		if already[id] {
			continue
		}
		award := models.PatternAward{
			ID:        uuid.NewString(),
			UserID:    userID,
			PatternID: id,
		}
		if err := tx.Create(&award).Error; err != nil {
			return nil, fmt.Errorf("failed to grant pattern %s: %w", id, err)
		}
		fresh = append(fresh, id)
	}
	return fresh, nil
}

// Grant inserts a single pattern award if absent. Returns true when the
// pattern was newly granted, false when the user already held it.
func (s *PatternService) Grant(tx *gorm.DB, userID, patternID string) (bool, error) {
	var count int64
	if err := tx.Model(&models.PatternAward{}).
		Where("user_id = ? AND pattern_id = ?", userID, patternID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	award := models.PatternAward{
		ID:        uuid.NewString(),
		UserID:    userID,
		PatternID: patternID,
	}
	if err := tx.Create(&award).Error; err != nil {
		return false, err
	}
	return true, nil
}

// GrantedPatterns lists the pattern identifiers already awarded to a user.
func (s *PatternService) GrantedPatterns(userID string) ([]string, error) {
	var ids []string
	err := s.DB.Model(&models.PatternAward{}).
		Where("user_id = ?", userID).
		Order("pattern_id ASC").
		Pluck("pattern_id", &ids).Error
	return ids, err
}
