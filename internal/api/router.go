package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/api/middleware"
)

const defaultBodyLimit = 10 * 1024 * 1024 // 10MB

type Dependencies struct {
	Frames handler.FrameService
	Stats  handler.StatsSource
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

// NewRouter builds the app. bodyLimit caps upload size in bytes, 0 means 10MB.
func NewRouter(logger *slog.Logger, deps *Dependencies, bodyLimit int) *Router {
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Spotlight API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover())
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/hello-world", healthHandler.HelloWorld)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Stats != nil {
		metricsHandler := handler.NewMetricsHandler(r.deps.Stats)
		r.app.Get("/metrics", metricsHandler.Metrics)
	}

	// Frame routes
	frameHandler := handler.NewFrameHandler(r.deps.Frames, r.logger)
	r.app.Post("/detect-faces", frameHandler.DetectFaces)
	r.app.Post("/process-frame", frameHandler.ProcessFrame)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
