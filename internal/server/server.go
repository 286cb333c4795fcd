// Package server assembles the HTTP application from a store: services,
// handlers, middleware and routes. It is shared by cmd/server and the
// end-to-end tests.
package server

import (
	"log/slog"

	"github.com/civix-app/civix-server/internal/config"
	"github.com/civix-app/civix-server/internal/handlers"
	"github.com/civix-app/civix-server/internal/middleware"
	"github.com/civix-app/civix-server/internal/routes"
	"github.com/civix-app/civix-server/internal/services"
	"github.com/civix-app/civix-server/internal/social"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/civix-app/civix-server/internal/tags"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	App      *fiber.App
	Trending *tags.TrendingCache
}

func New(cfg *config.Config, st store.Store) *Server {
	graph := social.NewGraph(st, st, social.WithMaxRetries(cfg.FollowRetries))
	trending := tags.NewTrendingCache(st.TagCounts, cfg.TrendingTTL)
	admins := services.NewAdminPolicy(st, cfg.AdminEmailList())

	authService := services.NewAuthService(st, cfg)
	reportService := services.NewReportService(st, admins, graph, trending)
	userService := services.NewUserService(st, st, graph)
	mutations := services.NewMutationCoordinator(st, st, graph)

	// Immutable: form values are stored as-is by the memory store and must
	// not alias fasthttp's reused request buffers.
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		Immutable:    true,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AppEnv != "test" {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, admins, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Health:  handlers.NewHealthHandler(st),
		Reports: handlers.NewReportHandler(reportService, mutations),
		Users:   handlers.NewUserHandler(userService, mutations),
	})

	return &Server{App: app, Trending: trending}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
