package models

import (
	"time"

	"gorm.io/gorm"
)

// Task is one cell on the bingo board. Rows are seeded once from the task
// catalog and never mutated afterwards except by an administrative reseed.
type Task struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	Description    string `gorm:"not null" json:"description"`
	Points         int64  `gorm:"not null;default:0" json:"points"`
	RequiresUpload bool   `gorm:"default:false" json:"requires_upload"`
	RequiresScan   bool   `gorm:"default:false" json:"requires_scan"`

	// Board placement, 1-indexed. One task per cell.
	GridRow    int `gorm:"not null;uniqueIndex:idx_task_cell" json:"grid_row"`
	GridColumn int `gorm:"not null;uniqueIndex:idx_task_cell" json:"grid_column"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// RequiresEvidence reports whether a submission without an evidence reference
// must be refused.
func (t *Task) RequiresEvidence() bool {
	return t.RequiresUpload || t.RequiresScan
}

// UserTask status values. A record is created on first submission; rejection
// keeps the row so a resubmission flips it back to pending rather than
// creating a second record for the same (user, task) pair.
const (
	TaskStatusPending  = "pending"
	TaskStatusApproved = "approved"
	TaskStatusRejected = "rejected"
)

// UserTask pairs a user with a task and carries the approval state machine.
type UserTask struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;uniqueIndex:idx_user_task" json:"user_id"`
	TaskID string `gorm:"not null;uniqueIndex:idx_user_task" json:"task_id"`

	Status      string  `gorm:"not null;index" json:"status"`
	EvidenceURL *string `json:"evidence_reference,omitempty"`

	SubmittedAt time.Time  `gorm:"not null" json:"submitted_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	DecidedBy   *string    `json:"decided_by,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
