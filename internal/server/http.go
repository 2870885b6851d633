package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/joseph-ayodele/jobfit/internal/async"
	"github.com/joseph-ayodele/jobfit/internal/entity"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
)

// MaxBodyBytes caps a submitted posting.
const MaxBodyBytes = 5 << 20

// Processor runs one posting inline; *pipeline.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, key, html string) (*pipeline.Outcome, error)
}

// Store is the read side of the application repository.
type Store interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*entity.Application, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Application, error)
}

type Exporter interface {
	ExportApplicationsXLSX(ctx context.Context, limit int) ([]byte, error)
}

type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// Deps are the collaborators the HTTP surface adapts.
type Deps struct {
	Queue     async.Queue
	Processor Processor
	Store     Store
	Exporter  Exporter
	DB        Pinger
}

type HTTPConfig struct {
	APIKey    string
	RateLimit int // submissions per client per minute; 0 disables
}

// NewHTTP builds the fiber app serving the posting and application routes.
func NewHTTP(deps Deps, cfg HTTPConfig, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:               "jobfit",
		BodyLimit:             MaxBodyBytes,
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          newErrorHandler(logger),
	})

	app.Use(RequestID())
	app.Use(AccessLog(logger))
	app.Use(recover.New())

	h := &handler{deps: deps, logger: logger}
	app.Get("/healthz", h.health)

	v1 := app.Group("/v1", APIKey(cfg.APIKey))
	submit := []fiber.Handler{}
	if cfg.RateLimit > 0 {
		submit = append(submit, rateLimiter(cfg.RateLimit, time.Minute))
	}
	v1.Post("/postings", append(submit, h.submit)...)
	v1.Post("/postings/sync", append(submit, h.processSync)...)
	v1.Get("/postings/:key/status", h.status)
	v1.Get("/applications", h.list)
	v1.Get("/applications/:key", h.get)
	v1.Get("/export.xlsx", h.export)

	return app
}

func rateLimiter(max int, expiration time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: expiration,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many submissions")
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
