package routes

import (
	"time"

	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/handlers"
	"github.com/civix-app/civix-server/internal/middleware"
	"github.com/civix-app/civix-server/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Reports *handlers.ReportHandler
	Users   *handlers.UserHandler
}

func Setup(app *fiber.App, cfg *config.Config, admins *services.AdminPolicy, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter, per IP
	if cfg.RateLimit > 0 {
		api.Use(rateLimiter(cfg.RateLimit))
	}

	api.Get("/health", h.Health.Check)

	protected := middleware.JWTProtected(cfg)

	// Auth: stricter limit
	auth := api.Group("/auth")
	if cfg.AuthLimit > 0 {
		auth.Use(rateLimiter(cfg.AuthLimit))
	}
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Get("/me", protected, h.Users.Me)

	// Reports. Static paths go before :id.
	reports := api.Group("/reports")
	reports.Get("/", middleware.OptionalAuth(cfg), h.Reports.List)
	reports.Get("/tags/trending", h.Reports.Trending)
	reports.Get("/:id", h.Reports.Get)
	reports.Post("/", protected, h.Reports.Create)
	reports.Put("/:id", protected, h.Reports.Update)
	reports.Delete("/:id", protected, h.Reports.Delete)
	reports.Post("/:id/upvote", protected, h.Reports.Upvote)
	reports.Post("/:id/comment", protected, h.Reports.Comment)
	reports.Post("/:id/share", protected, h.Reports.Share)

	users := api.Group("/users")
	users.Get("/bookmarks", protected, h.Users.Bookmarks)
	users.Put("/bookmark/:id", protected, h.Users.ToggleBookmark)
	users.Put("/follow/:id", protected, h.Users.Follow)
	users.Put("/unfollow/:id", protected, h.Users.Unfollow)
	users.Put("/profile", protected, h.Users.UpdateProfile)
	users.Get("/:id", h.Users.Profile)

	admin := api.Group("/admin", protected, middleware.AdminRequired(admins))
	admin.Put("/reports/:id/verify", h.Reports.Verify)
}

func rateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
