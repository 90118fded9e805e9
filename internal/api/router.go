package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/blobstore"
)

const Version = "1.0.0"

const defaultMaxUploadBytes = 20 << 20

// Dependencies wires the HTTP surface. Pipeline is required; the rest are
// optional and their routes or checks are skipped when nil.
type Dependencies struct {
	Pipeline       handler.MatchRunner
	Uploads        handler.ImageRunner
	UploadStore    blobstore.Writer
	Corpora        handler.CorpusLister
	Audits         handler.AuditReader
	RateLimiter    middleware.Allower
	MatchRateLimit int
	DB             handler.Pinger
	PublicBaseURL  string
	MaxUploadBytes int
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	bodyLimit := deps.MaxUploadBytes
	if bodyLimit <= 0 {
		bodyLimit = defaultMaxUploadBytes
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "facefinder API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.DB, Version, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	captureHandler := handler.NewLogCaptureHandler(r.logger)
	r.app.Post("/capture-logs", captureHandler.Capture)

	v1 := r.app.Group("/v1")

	rateLimit := middleware.RateLimit(r.deps.RateLimiter, r.deps.MatchRateLimit, r.logger)

	matchHandler := handler.NewMatchHandler(r.deps.Pipeline, r.deps.PublicBaseURL, r.logger)
	v1.Post("/matches", rateLimit, matchHandler.Match)

	if r.deps.Uploads != nil && r.deps.UploadStore != nil {
		uploadHandler := handler.NewUploadHandler(r.deps.Uploads, r.deps.UploadStore, r.deps.PublicBaseURL, r.logger)
		v1.Post("/uploads", rateLimit, uploadHandler.Upload)
	}

	if r.deps.Corpora != nil {
		imageHandler := handler.NewImageHandler(r.deps.Corpora, r.deps.PublicBaseURL, r.logger)
		v1.Get("/images", imageHandler.List)
	}

	if r.deps.Audits != nil {
		scanHandler := handler.NewScanHandler(r.deps.Audits, r.logger)
		v1.Get("/scans", scanHandler.List)
		v1.Get("/scans/:id", scanHandler.Get)
	}
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
