package server

import (
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobfit/internal/common"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAPIKey    = "X-API-Key"

	localsRequestID = "request_id"
)

// RequestID reuses the caller's X-Request-ID or mints one, echoes it back and
// puts it on the request context for the pipeline's log lines.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.New().String()
		}
		c.Locals(localsRequestID, rid)
		c.Set(HeaderRequestID, rid)
		c.SetUserContext(common.WithRequestID(c.UserContext(), rid))
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	rid, _ := c.Locals(localsRequestID).(string)
	return rid
}

// AccessLog writes one line per request after the error handler has set the status.
func AccessLog(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		logger.Info("http.request",
			"req_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}

// APIKey rejects requests without the configured X-API-Key. An empty key disables the check.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		got := c.Get(HeaderAPIKey)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return common.NewAppError(common.CodeUnauthorized, "missing or invalid API key", common.ErrUnauthorized)
		}
		return c.Next()
	}
}
