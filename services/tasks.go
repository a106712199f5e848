package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bingo-task-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workflow errors. Handlers map these onto HTTP statuses; anything else
// surfaces as a retryable internal error.
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrNothingPending   = errors.New("no pending submission for this task")
	ErrAlreadyApproved  = errors.New("task already approved")
	ErrAlreadyPending   = errors.New("submission already pending approval")
	ErrEvidenceRequired = errors.New("evidence upload required for this task")
	ErrUnauthorized     = errors.New("reviewer capability required")
	ErrUnknownPattern   = errors.New("unknown pattern identifier")
)

// Actor is the caller of a workflow operation: an identity plus the
// capabilities the gateway granted it. Reviewer-only operations check the
// capability here, at the workflow boundary, not the raw role strings.
type Actor struct {
	ID        string
	CanReview bool
}

// TaskService orchestrates the submission and approval state machine:
// NotStarted → Pending → {Approved | Rejected}, with Rejected → Pending on
// resubmission and Approved terminal.
type TaskService struct {
	DB          *gorm.DB
	Leaderboard *LeaderboardService
	Patterns    *PatternService
	Badges      *BadgeService
}

func NewTaskService(db *gorm.DB, leaderboard *LeaderboardService, patterns *PatternService, badges *BadgeService) *TaskService {
	return &TaskService{DB: db, Leaderboard: leaderboard, Patterns: patterns, Badges: badges}
}

// Submit records a completion claim and parks it for moderator review. The
// leaderboard is untouched until approval.
func (s *TaskService) Submit(userID, taskID string, evidenceURL *string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		if task.RequiresEvidence() && (evidenceURL == nil || *evidenceURL == "") {
			return ErrEvidenceRequired
		}

		var record models.UserTask
		err := tx.Where("user_id = ? AND task_id = ?", userID, taskID).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = models.UserTask{
				ID:          uuid.NewString(),
				UserID:      userID,
				TaskID:      taskID,
				Status:      models.TaskStatusPending,
				EvidenceURL: evidenceURL,
				SubmittedAt: time.Now().UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				// The (user_id, task_id) unique index collapses racing
				// submissions to a single pending record.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyPending
				}
				return err
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch record.Status {
		case models.TaskStatusPending:
			return ErrAlreadyPending
		case models.TaskStatusApproved:
			return ErrAlreadyApproved
		}

		// Rejected: the same record starts a new pending cycle. Guarding on
		// the old status makes concurrent resubmissions pick one winner.
		res := tx.Model(&models.UserTask{}).
			Where("id = ? AND status = ?", record.ID, models.TaskStatusRejected).
			Updates(map[string]interface{}{
				"status":       models.TaskStatusPending,
				"evidence_url": evidenceURL,
				"submitted_at": time.Now().UTC(),
				"decided_at":   nil,
				"decided_by":   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyPending
		}
		return nil
	})
}

// Approve flips the pending record to approved, credits the task's points,
// re-evaluates the board and grants badges for any newly completed patterns.
// The whole unit commits or rolls back together: a failure anywhere leaves
// the record pending for retry. Returns the newly completed pattern IDs.
func (s *TaskService) Approve(actor Actor, userID, taskID string) ([]string, error) {
	if !actor.CanReview {
		return nil, ErrUnauthorized
	}

	var newPatterns []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		// Compare-and-commit on the pending status: of two racing approvals
		// exactly one sees RowsAffected == 1, so points credit exactly once.
		now := time.Now().UTC()
		res := tx.Model(&models.UserTask{}).
			Where("user_id = ? AND task_id = ? AND status = ?", userID, taskID, models.TaskStatusPending).
			Updates(map[string]interface{}{
				"status":     models.TaskStatusApproved,
				"decided_at": now,
				"decided_by": actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNothingPending
		}

		if err := s.Leaderboard.Credit(tx, userID, task.Points); err != nil {
			return err
		}

		patterns, err := s.Patterns.EvaluateBoard(tx, userID)
		if err != nil {
			return err
		}
		for _, patternID := range patterns {
			if err := s.Badges.OnPatternUnlocked(tx, userID, patternID); err != nil {
				return err
			}
		}
		newPatterns = patterns
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(newPatterns) > 0 {
		log.Printf("🎉 Patterns completed by %s: %v", userID, newPatterns)
	}
	return newPatterns, nil
}

// Reject stamps the decision on the pending record. No leaderboard or
// pattern side effects; the user may resubmit.
func (s *TaskService) Reject(actor Actor, userID, taskID string) error {
	if !actor.CanReview {
		return ErrUnauthorized
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		now := time.Now().UTC()
		res := tx.Model(&models.UserTask{}).
			Where("user_id = ? AND task_id = ? AND status = ?", userID, taskID, models.TaskStatusPending).
			Updates(map[string]interface{}{
				"status":     models.TaskStatusRejected,
				"decided_at": now,
				"decided_by": actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNothingPending
		}
		return nil
	})
}

// PendingSubmission is one row in the moderator review queue.
type PendingSubmission struct {
	UserID      string    `json:"user_id"`
	TaskID      string    `json:"task_id"`
	Description string    `json:"description"`
	Points      int64     `json:"points"`
	SubmittedAt time.Time `json:"submitted_at"`
	EvidenceURL *string   `json:"evidence_reference,omitempty"`
}

// ListPending returns the review queue, oldest submission first.
func (s *TaskService) ListPending(actor Actor) ([]PendingSubmission, error) {
	if !actor.CanReview {
		return nil, ErrUnauthorized
	}

	var queue []PendingSubmission
	err := s.DB.Model(&models.UserTask{}).
		Select(`user_tasks.user_id, user_tasks.task_id, tasks.description, tasks.points,
			user_tasks.submitted_at, user_tasks.evidence_url`).
		Joins("JOIN tasks ON tasks.id = user_tasks.task_id").
		Where("user_tasks.status = ?", models.TaskStatusPending).
		Order("user_tasks.submitted_at ASC").
		Scan(&queue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	return queue, nil
}

// ForceAwardPattern grants a pattern directly, bypassing detection. Used for
// remediation when automatic detection misfires. Idempotent: a pattern the
// user already holds is a quiet no-op, and badges are only granted on the
// first call.
func (s *TaskService) ForceAwardPattern(actor Actor, userID, patternID string) error {
	if !actor.CanReview {
		return ErrUnauthorized
	}
	if !s.Patterns.Board.HasPattern(patternID) {
		return ErrUnknownPattern
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		fresh, err := s.Patterns.Grant(tx, userID, patternID)
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}
		log.Printf("🔧 Pattern %s force-awarded to %s by %s", patternID, userID, actor.ID)
		return s.Badges.OnPatternUnlocked(tx, userID, patternID)
	})
}

// BoardTask is a catalog entry merged with the caller's progress, for
// rendering the caller's board.
type BoardTask struct {
	models.Task
	Status      string  `json:"status"`
	EvidenceURL *string `json:"evidence_reference,omitempty"`
}

// BoardFor returns every task with the user's status on it; tasks the user
// never submitted report "not_started".
func (s *TaskService) BoardFor(userID string) ([]BoardTask, error) {
	var tasks []models.Task
	if err := s.DB.Order("grid_row ASC, grid_column ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load task catalog: %w", err)
	}

	var records []models.UserTask
	if err := s.DB.Where("user_id = ?", userID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load user records: %w", err)
	}
	byTask := make(map[string]models.UserTask, len(records))
	for _, r := range records {
		byTask[r.TaskID] = r
	}

	board := make([]BoardTask, 0, len(tasks))
	for _, t := range tasks {
		bt := BoardTask{Task: t, Status: "not_started"}
		if r, ok := byTask[t.ID]; ok {
			bt.Status = r.Status
			bt.EvidenceURL = r.EvidenceURL
		}
		board = append(board, bt)
	}
	return board, nil
}
