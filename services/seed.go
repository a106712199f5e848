package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"bingo-task-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogLoader supplies the initial task catalog. The workflow depends only
// on this interface, never on a concrete file format, so tests can substitute
// an in-memory catalog.
type CatalogLoader interface {
	LoadTasks() ([]models.Task, error)
}

// JSONCatalogLoader reads the seed catalog from a JSON file on disk.
type JSONCatalogLoader struct {
	Path string
}

type catalogTask struct {
	Description    string `json:"description"`
	Points         int64  `json:"points"`
	RequiresUpload bool   `json:"requires_upload"`
	RequiresScan   bool   `json:"requires_scan"`
	GridRow        int    `json:"grid_row"`
	GridColumn     int    `json:"grid_column"`
}

func (l JSONCatalogLoader) LoadTasks() ([]models.Task, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task catalog %s: %w", l.Path, err)
	}
	var raw []catalogTask
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse task catalog %s: %w", l.Path, err)
	}

	tasks := make([]models.Task, 0, len(raw))
	for _, t := range raw {
		tasks = append(tasks, models.Task{
			Description:    t.Description,
			Points:         t.Points,
			RequiresUpload: t.RequiresUpload,
			RequiresScan:   t.RequiresScan,
			GridRow:        t.GridRow,
			GridColumn:     t.GridColumn,
		})
	}
	return tasks, nil
}

// StaticCatalogLoader serves a fixed slice; used by tests and bootstrap code.
type StaticCatalogLoader []models.Task

func (l StaticCatalogLoader) LoadTasks() ([]models.Task, error) {
	return []models.Task(l), nil
}

// SeedTasks loads the catalog into an empty tasks table. A populated table is
// left alone; reseeding is an explicit administrative action, not a restart
// side effect.
func SeedTasks(db *gorm.DB, board Board, loader CatalogLoader) error {
	var count int64
	if err := db.Model(&models.Task{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Task catalog already seeded (%d tasks)", count)
		return nil
	}

	tasks, err := loader.LoadTasks()
	if err != nil {
		return err
	}

	seen := make(map[Cell]bool, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.Points < 0 {
			return fmt.Errorf("task %q has negative points", t.Description)
		}
		cell := Cell{Row: t.GridRow, Col: t.GridColumn}
		if cell.Row < 1 || cell.Row > board.Rows || cell.Col < 1 || cell.Col > board.Cols {
			return fmt.Errorf("task %q is placed at (%d,%d), outside the %dx%d board",
				t.Description, cell.Row, cell.Col, board.Rows, board.Cols)
		}
		if seen[cell] {
			return fmt.Errorf("two tasks share board cell (%d,%d)", cell.Row, cell.Col)
		}
		seen[cell] = true
	}

	if len(tasks) == 0 {
		return nil
	}
	if err := db.Create(&tasks).Error; err != nil {
		return fmt.Errorf("failed to seed tasks: %w", err)
	}
	log.Printf("✅ Seeded %d tasks onto the %dx%d board", len(tasks), board.Rows, board.Cols)
	return nil
}

// SeedBadges populates badge_types from the board's pattern catalog when the
// table is empty.
func SeedBadges(db *gorm.DB, board Board) error {
	var count int64
	if err := db.Model(&models.BadgeType{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	badges := models.DefaultBadgeCatalog(board.PatternIDs())
	for i := range badges {
		badges[i].ID = uuid.NewString()
	}
	if err := db.Create(&badges).Error; err != nil {
		return fmt.Errorf("failed to seed badge catalog: %w", err)
	}
	log.Printf("✅ Seeded %d badges from the pattern catalog", len(badges))
	return nil
}
