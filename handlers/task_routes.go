// handlers/task_routes.go
package handlers

import (
	"errors"
	"log"

	"bingo-task-system/middleware"
	"bingo-task-system/services"
	"bingo-task-system/utils"

	"github.com/gofiber/fiber/v2"
)

func actorFromCtx(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals("user_id").(string)
	return services.Actor{
		ID:        userID,
		CanReview: middleware.HasReviewerRole(middleware.RolesFromCtx(c)),
	}
}

// workflowError maps workflow sentinels onto HTTP statuses. Anything
// unexpected is a retryable internal error; state was rolled back.
func workflowError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound), errors.Is(err, services.ErrNothingPending):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrAlreadyPending),
		errors.Is(err, services.ErrEvidenceRequired),
		errors.Is(err, services.ErrUnknownPattern):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("❌ Workflow error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error, please retry",
	})
}

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// The caller's board: full catalog merged with their submission states.
	secured.Get("/tasks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		board, err := taskService.BoardFor(userID)
		if err != nil {
			return workflowError(c, err)
		}
		return c.JSON(board)
	})

	secured.Post("/tasks/submit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		taskID := c.FormValue("task_id")
		if taskID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "task_id is required"})
		}

		var evidenceURL *string
		if file, err := c.FormFile("evidence"); err == nil && file.Size > 0 {
			url, err := utils.StoreEvidence(file)
			if err != nil {
				log.Printf("❌ Evidence upload failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to store evidence, please retry",
				})
			}
			evidenceURL = &url
		} else if ref := c.FormValue("evidence_reference"); ref != "" {
			evidenceURL = &ref
		}

		if err := taskService.Submit(userID, taskID, evidenceURL); err != nil {
			return workflowError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Task submitted for approval"})
	})

	secured.Post("/tasks/approve", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			TaskID string `json:"task_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.UserID == "" || req.TaskID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and task_id are required"})
		}

		newPatterns, err := taskService.Approve(actorFromCtx(c), req.UserID, req.TaskID)
		if err != nil {
			return workflowError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":      "Task approved",
			"new_patterns": newPatterns,
		})
	})

	secured.Post("/tasks/reject", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			TaskID string `json:"task_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.UserID == "" || req.TaskID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and task_id are required"})
		}

		if err := taskService.Reject(actorFromCtx(c), req.UserID, req.TaskID); err != nil {
			return workflowError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Task rejected"})
	})

	secured.Get("/tasks/pending", func(c *fiber.Ctx) error {
		queue, err := taskService.ListPending(actorFromCtx(c))
		if err != nil {
			return workflowError(c, err)
		}
		return c.JSON(queue)
	})

	secured.Post("/patterns/force-award", func(c *fiber.Ctx) error {
		var req struct {
			UserID    string `json:"user_id"`
			PatternID string `json:"pattern_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.UserID == "" || req.PatternID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and pattern_id are required"})
		}

		if err := taskService.ForceAwardPattern(actorFromCtx(c), req.UserID, req.PatternID); err != nil {
			return workflowError(c, err)
		}
		return c.JSON(fiber.Map{"message": "Pattern awarded"})
	})

	secured.Get("/roles/reviewer", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"is_reviewer": actorFromCtx(c).CanReview})
	})
}
