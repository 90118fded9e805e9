package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// ErrorResponse is the JSON envelope of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Error: ErrorBody{Code: "HTTP_ERROR", Message: fiberErr.Message},
			})
		}

		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("request timed out",
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
			return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResponse{
				Error: ErrorBody{Code: "TIMEOUT", Message: "request timed out"},
			})
		}

		// ExtractionError and unknown errors resolve to their AppError here
		appErr := domain.AsAppError(err)
		if appErr.StatusCode >= 500 {
			logger.Error("request failed",
				slog.String("code", appErr.Code),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		} else {
			logger.Debug("request rejected",
				slog.String("code", appErr.Code),
				slog.Any("error", err),
			)
		}

		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: ErrorBody{Code: appErr.Code, Message: appErr.Message},
		})
	}
}
