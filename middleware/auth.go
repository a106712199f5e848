package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Roles that carry the reviewer capability: their holders may approve or
// reject submissions and force-award patterns.
var reviewerRoles = map[string]bool{
	"Developer":  true,
	"GameKeeper": true,
}

// HasReviewerRole reports whether any of the gateway-supplied roles grants
// the reviewer capability.
func HasReviewerRole(roles []string) bool {
	for _, r := range roles {
		if reviewerRoles[r] {
			return true
		}
	}
	return false
}

// UserContextMiddleware extracts the identity context set by the Gateway and
// attaches it to the request. Requests without a user identity are refused.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals("user_id", userID)
		c.Locals("user_roles", roles)
		c.Locals("username", c.Get("X-User-Name"))
		c.Locals("user_email", c.Get("X-User-Email"))

		return c.Next()
	}
}

// RolesFromCtx returns the gateway-supplied roles attached by
// UserContextMiddleware.
func RolesFromCtx(c *fiber.Ctx) []string {
	roles, _ := c.Locals("user_roles").([]string)
	return roles
}
