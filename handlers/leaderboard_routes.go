// handlers/leaderboard_routes.go
package handlers

import (
	"log"
	"strconv"

	"bingo-task-system/middleware"
	"bingo-task-system/services"
	"bingo-task-system/workers"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService,
	badgeService *services.BadgeService, cache *workers.LeaderboardCacheClient) {

	// 🔓 Public routes — no user context, but still behind Gateway auth
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		scope := c.Query("scope", services.ScopeTotal)
		if scope != services.ScopeTotal && scope != services.ScopeMonthly {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "scope must be 'total' or 'monthly'",
			})
		}

		snapshot, err := leaderboardService.Snapshot(scope)
		if err != nil {
			log.Printf("❌ Leaderboard read failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error, please retry",
			})
		}
		return c.JSON(snapshot)
	})

	// Fast path served from the Redis mirror, falling back to the database
	// when the mirror is disabled or cold.
	app.Get("/leaderboard/top", func(c *fiber.Ctx) error {
		scope := c.Query("scope", services.ScopeTotal)
		n, _ := strconv.Atoi(c.Query("n", "10"))
		if n < 1 || n > 100 {
			n = 10
		}

		if cache != nil {
			entries, err := cache.TopN(c.Context(), scope, n)
			if err == nil && len(entries) > 0 {
				return c.JSON(entries)
			}
			if err != nil {
				log.Printf("⚠️  Leaderboard cache miss: %v", err)
			}
		}

		snapshot, err := leaderboardService.Snapshot(scope)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error, please retry",
			})
		}
		if len(snapshot) > n {
			snapshot = snapshot[:n]
		}
		return c.JSON(snapshot)
	})

	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		entry, err := leaderboardService.EntryFor(userID)
		if err != nil {
			log.Printf("❌ Profile read failed for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error, please retry",
			})
		}

		badges, err := badgeService.UserBadges(userID)
		if err != nil {
			log.Printf("❌ Badge read failed for %s: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error, please retry",
			})
		}

		return c.JSON(fiber.Map{
			"user_id":        userID,
			"username":       c.Locals("username"),
			"email":          c.Locals("user_email"),
			"total_points":   entry.TotalPoints,
			"monthly_points": entry.MonthlyPoints,
			"rank":           services.RankForPoints(entry.TotalPoints),
			"badges":         badges,
		})
	})
}
