package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tair/catalog-console/internal/catalog/gateway"
	"github.com/tair/catalog-console/pkg/logger"
)

// ServerConfig configures the console Fiber app.
type ServerConfig struct {
	ServiceName     string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewApp builds the console app: global middleware, static assets and the handler's
// routes. redisClient enables rate limiting of mutating routes and may be nil.
func NewApp(h *Handler, cfg ServerConfig, redisClient *redis.Client, reg prometheus.Registerer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Catalog Console",
		// sessions keep form values and the client id past the request
		Immutable:    true,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: h.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(TracingMiddleware(cfg.ServiceName))
	app.Use(StructuredLoggingMiddleware())
	app.Use(NewHTTPMetrics(reg).Middleware())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
		MaxAge:     3600,
	}))

	var limit fiber.Handler
	if redisClient != nil && cfg.RateLimitMax > 0 {
		limit = NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow).Middleware()
		logger.Logger.Info().
			Int("max", cfg.RateLimitMax).
			Dur("window", cfg.RateLimitWindow).
			Msg("Rate limiting enabled for console intents")
	} else {
		logger.Logger.Warn().Msg("Rate limiting disabled (Redis not configured)")
	}

	h.RegisterRoutes(app, limit)
	return app
}

func statusForError(err error) int {
	if errors.Is(err, gateway.ErrNetwork) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders failures as the JSON envelope under /api and as the error
// page with a retry link elsewhere.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	code := statusForError(err)
	message := "Something went wrong"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else if code == fiber.StatusBadGateway {
		message = "The product service is unavailable"
	}

	if code >= fiber.StatusInternalServerError {
		logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Console request failed")
	}

	if strings.HasPrefix(c.Path(), "/api") {
		return c.Status(code).JSON(Response{Success: false, Error: message})
	}
	if rerr := h.render(c, code, "error", errorData{Code: code, Message: message}); rerr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}
