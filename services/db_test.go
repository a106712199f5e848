package services

import (
	"strings"
	"testing"

	"bingo-task-system/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the full schema.
// A single named shared-cache DB per test keeps every pooled connection on
// the same data; one open connection serializes access the way the tests
// expect.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.Task{},
		&models.UserTask{},
		&models.LeaderboardEntry{},
		&models.PatternAward{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.Player{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
