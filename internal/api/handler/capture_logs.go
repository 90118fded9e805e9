package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/diagnostic"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

// LogCaptureHandler is the receiving side of diagnostic.HTTPSink.
type LogCaptureHandler struct {
	logger *slog.Logger
}

func NewLogCaptureHandler(logger *slog.Logger) *LogCaptureHandler {
	return &LogCaptureHandler{logger: logger.With(slog.String("component", "capture"))}
}

type CaptureResponse struct {
	Message string `json:"message"`
}

// Capture POST /capture-logs - record a diagnostic event sent by a client
func (h *LogCaptureHandler) Capture(c *fiber.Ctx) error {
	var event diagnostic.Event
	if err := c.BodyParser(&event); err != nil {
		return domain.ErrUsage.WithError(err)
	}

	if strings.TrimSpace(string(event.Level)) == "" || strings.TrimSpace(event.Message) == "" {
		return domain.ErrUsage.WithError(errors.New("level and message are required"))
	}

	level := diagnostic.ParseLevel(string(event.Level))
	attrs := []any{slog.String("ip", c.IP())}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("meta", event.Metadata))
	}
	h.logger.Log(c.UserContext(), level.Slog(), event.Message, attrs...)

	return c.JSON(CaptureResponse{Message: "Log received successfully"})
}
