// Package diagnostic records pipeline events locally through slog and
// forwards them to an optional remote log collector.
package diagnostic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Level is one of the three levels the log collector accepts.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warning"
	LevelError Level = "error"
)

// ParseLevel maps a wire level to Level. "warn" is accepted as an alias;
// anything else maps to info.
func ParseLevel(s string) Level {
	switch s {
	case string(LevelWarn), "warn":
		return LevelWarn
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) Slog() slog.Level {
	switch l {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Event is the wire format accepted by the log collector.
type Event struct {
	Level    Level          `json:"level"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"meta"`
}

// Sink delivers events somewhere outside the process.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// NopSink discards events (no collector configured)
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }

// HTTPSink POSTs each event as JSON to a collector endpoint
type HTTPSink struct {
	endpoint string
	client   *http.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}

// Recorder fans events out to slog and a Sink. Sink failures are logged
// and never returned, so diagnostics cannot change a run's outcome.
type Recorder struct {
	logger *slog.Logger
	sink   Sink
}

func NewRecorder(logger *slog.Logger, sink Sink) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	return &Recorder{
		logger: logger.With("component", "diagnostic"),
		sink:   sink,
	}
}

// Discard returns a Recorder that drops everything.
func Discard() *Recorder {
	return NewRecorder(slog.New(slog.NewTextHandler(io.Discard, nil)), NopSink{})
}

func (r *Recorder) Record(ctx context.Context, level Level, message string, meta map[string]any) {
	level = ParseLevel(string(level))
	if meta == nil {
		meta = map[string]any{}
	}

	attrs := make([]any, 0, len(meta)*2)
	for k, v := range meta {
		attrs = append(attrs, k, v)
	}
	r.logger.Log(ctx, level.Slog(), message, attrs...)

	// Delivery is bounded by the sink's own timeout, not by a run that may
	// already be cancelled.
	if err := r.sink.Send(context.WithoutCancel(ctx), Event{Level: level, Message: message, Metadata: meta}); err != nil {
		r.logger.Warn("diagnostic delivery failed", slog.String("error", err.Error()), slog.String("message", message))
	}
}

func (r *Recorder) Info(ctx context.Context, message string, meta map[string]any) {
	r.Record(ctx, LevelInfo, message, meta)
}

func (r *Recorder) Warn(ctx context.Context, message string, meta map[string]any) {
	r.Record(ctx, LevelWarn, message, meta)
}

func (r *Recorder) Error(ctx context.Context, message string, meta map[string]any) {
	r.Record(ctx, LevelError, message, meta)
}
