// handlers/player_routes.go
package handlers

import (
	"log"

	"bingo-task-system/middleware"
	"bingo-task-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Player directory search, for reviewers picking whose board to inspect.
	secured.Get("/players/search", func(c *fiber.Ctx) error {
		if !actorFromCtx(c).CanReview {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": services.ErrUnauthorized.Error(),
			})
		}

		limit := services.ParseLimit(c.Query("limit"), 50)
		players, err := playerService.Search(c.Query("q"), limit)
		if err != nil {
			log.Printf("❌ Player search failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error, please retry",
			})
		}
		return c.JSON(players)
	})
}
