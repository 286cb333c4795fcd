package middleware

import (
	"errors"

	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtConfig(cfg, nil))
}

// OptionalAuth verifies a bearer token when one is sent and lets anonymous
// requests through untouched. An invalid token is still rejected.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtConfig(cfg, func(c *fiber.Ctx) bool {
		return c.Get(fiber.HeaderAuthorization) == ""
	}))
}

func jwtConfig(cfg *config.Config, filter func(*fiber.Ctx) bool) jwtware.Config {
	return jwtware.Config{
		Filter:     filter,
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Success: false,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	}
}

// CurrentUserID extracts the user UUID from the verified JWT claims.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// OptionalUserID returns nil for anonymous requests.
func OptionalUserID(c *fiber.Ctx) *uuid.UUID {
	id, err := CurrentUserID(c)
	if err != nil {
		return nil
	}
	return &id
}
