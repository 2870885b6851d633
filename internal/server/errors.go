package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/jobfit/internal/common"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an error code onto the HTTP status the client sees.
func statusFor(code string) int {
	switch code {
	case common.CodeInvalidInput, common.CodeConfig:
		return fiber.StatusBadRequest
	case common.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case common.CodeNotFound:
		return fiber.StatusNotFound
	case common.CodeAlreadyProcessed:
		return fiber.StatusConflict
	case common.CodeNoContent:
		return fiber.StatusUnprocessableEntity
	case common.CodeEmptyResponse, common.CodeInvalidJSON, common.CodeEmptyCompletion, common.CodeUnparsableResponse:
		return fiber.StatusBadGateway
	case common.CodeOracleUnavailable, common.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// newErrorHandler renders every error returned by a handler as
// {"error": {"code", "message", "request_id"}}.
func newErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		rid := requestID(c)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(errorBody{Error: errorDetail{
				Code:      httpCode(fe.Code),
				Message:   fe.Message,
				RequestID: rid,
			}})
		}

		code := common.CodeOf(err)
		status := statusFor(code)
		msg := err.Error()
		var ae *common.AppError
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		if code == "" {
			code = "INTERNAL"
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("http.request.failed", "req_id", rid, "path", c.Path(), "code", code, "error", err)
			if status == fiber.StatusInternalServerError {
				msg = "internal error"
			}
		}
		return c.Status(status).JSON(errorBody{Error: errorDetail{Code: code, Message: msg, RequestID: rid}})
	}
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return common.CodeInvalidInput
	case fiber.StatusUnauthorized:
		return common.CodeUnauthorized
	case fiber.StatusNotFound:
		return common.CodeNotFound
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	}
	if status >= fiber.StatusInternalServerError {
		return "INTERNAL"
	}
	return "HTTP_ERROR"
}
