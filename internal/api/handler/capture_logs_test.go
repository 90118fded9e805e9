package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogCaptureHandler_Capture(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLog    string
	}{
		{
			name:       "error event",
			body:       `{"level":"error","message":"Error processing a.png","meta":{"entry":"a.png"}}`,
			wantStatus: 200,
			wantLog:    "level=ERROR msg=\"Error processing a.png\"",
		},
		{
			name:       "unknown level falls back to info",
			body:       `{"level":"verbose","message":"hello"}`,
			wantStatus: 200,
			wantLog:    "level=INFO msg=hello",
		},
		{name: "missing level", body: `{"message":"hello"}`, wantStatus: 400},
		{name: "missing message", body: `{"level":"info"}`, wantStatus: 400},
		{name: "not json", body: `level=info`, wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			app := newTestApp()
			app.Post("/capture-logs", NewLogCaptureHandler(logger).Capture)

			req := httptest.NewRequest("POST", "/capture-logs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == 200 {
				var body CaptureResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "Log received successfully", body.Message)
				assert.Contains(t, buf.String(), tt.wantLog)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}
