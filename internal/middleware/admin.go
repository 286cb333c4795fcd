package middleware

import (
	"log/slog"

	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired runs after JWTProtected and admits users that the policy
// recognises as admins, by stored role or configured email.
func AdminRequired(policy *services.AdminPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := CurrentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Success: false, Message: "Unauthorized",
			})
		}

		ok, err := policy.IsAdmin(c.UserContext(), userID)
		if err != nil {
			slog.Warn("admin check failed", "user_id", userID.String(), "error", err.Error())
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Success: false, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
