package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/placement-go-api/internal/config"
	"github.com/noah-isme/placement-go-api/internal/handler"
	"github.com/noah-isme/placement-go-api/internal/middleware"
	"github.com/noah-isme/placement-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DriveHandler        *handler.DriveHandler
	RegistrationHandler *handler.RegistrationHandler
	ResultHandler       *handler.ResultHandler
	StudentHandler      *handler.StudentHandler
	CompanyHandler      *handler.CompanyHandler
	DashboardHandler    *handler.DashboardHandler
	ActivityHandler     *handler.ActivityHandler
	EventHandler        *handler.EventHandler
	JWTMiddleware       fiber.Handler
	RegisterRateLimit   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	rateLimit := deps.RegisterRateLimit
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTPO)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)

	if deps.DriveHandler != nil {
		drives := api.Group("/drives", jwtMiddleware)
		deps.DriveHandler.Register(drives, staffOnly)

		if deps.RegistrationHandler != nil {
			deps.RegistrationHandler.Register(drives, rateLimit)
		}
		if deps.ResultHandler != nil {
			deps.ResultHandler.Register(drives, staffOnly)
		}
	}

	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentHandler.Register(students, staffOnly)
	}

	if deps.CompanyHandler != nil {
		companies := api.Group("/companies", jwtMiddleware)
		deps.CompanyHandler.Register(companies, adminOnly)
	}

	if deps.DashboardHandler != nil {
		dashboard := api.Group("/dashboard", jwtMiddleware, staffOnly)
		deps.DashboardHandler.Register(dashboard)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, staffOnly)
		deps.ActivityHandler.Register(activity)
	}

	if deps.EventHandler != nil {
		events := api.Group("/events", jwtMiddleware)
		deps.EventHandler.Register(events)
	}
}
