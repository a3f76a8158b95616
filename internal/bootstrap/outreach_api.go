package bootstrap

import (
	"strings"
	"time"

	apihttp "outreach_server/adapter/in/http"
	"outreach_server/config"
	"outreach_server/core/port/in"
	"outreach_server/infra/middleware"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewAPI builds the fiber app with all routes registered.
func NewAPI(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.ValidateContentType())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	// Health probes stay outside auth
	healthHandler := apihttp.NewHealthHandler(deps.DB, deps.Redis, deps.Backend.Sender.BackendName())
	healthHandler.Register(app)

	api := app.Group("/api/v1")
	if cfg.JWTSecret != "" {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	} else {
		deps.Log.Warn().Msg("JWT_SECRET not set, API routes are unauthenticated")
	}
	api.Use(middleware.NewRateLimiter(500, time.Minute).Handler())
	api.Use("/email/send", middleware.SendLimiter())

	apihttp.NewProviderHandler(deps.ProviderRepo, deps.ContactRepo).Register(api)
	apihttp.NewEmailHandler(deps.MailService).Register(api)

	apihttp.NewOutreachHandler(deps.OutreachRepo, replySyncOrNil(deps)).Register(api)

	return app
}

// replySyncOrNil avoids handing a typed nil pointer to the handler's
// interface field.
func replySyncOrNil(deps *Dependencies) in.ReplySync {
	if deps.ReplySync == nil {
		return nil
	}
	return deps.ReplySync
}
