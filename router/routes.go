package router

import (
	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	handler "github.com/aljonleynes11/media-coding-exam-backend/handlers"
	"github.com/aljonleynes11/media-coding-exam-backend/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const bodyLimit = 25 << 20

type Options struct {
	CORSOrigins string
	// AccessLog enables the per-request logger middleware.
	AccessLog bool
}

// New builds the fiber app with every route mounted.
func New(h *handler.Handler, verifier auth.Verifier, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "media-backend",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	SetupRoutes(app, h, verifier, opts.AccessLog)
	return app
}

func SetupRoutes(app *fiber.App, h *handler.Handler, verifier auth.Verifier, accessLog bool) {
	api := app.Group("/api")
	if accessLog {
		api.Use(logger.New())
	}
	api.Get("/hello", handler.Health)

	// Auth
	authGroup := api.Group("/auth")
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)

	protected := middleware.AuthMiddleware(verifier)

	// Uploads
	api.Post("/uploads", protected, h.Upload)

	// Images
	images := api.Group("/images", protected)
	images.Get("/", h.ListImages)
	images.Get("/:id", h.GetImage)
	images.Get("/:id/signed-url", h.SignedURL)
	images.Post("/:id/analyze-now", h.AnalyzeNow)
}
