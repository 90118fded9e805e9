package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingAllower allows limit requests per client and then rejects.
type countingAllower struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (a *countingAllower) Allow(_ context.Context, client string, limit int) error {
	if a.err != nil {
		return a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.counts == nil {
		a.counts = map[string]int{}
	}
	a.counts[client]++
	if a.counts[client] > limit {
		return domain.ErrRateLimitExceeded
	}
	return nil
}

func newLimitedApp(limiter Allower, limit int) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(testLogger())})
	app.Use(RateLimit(limiter, limit, testLogger()))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestRateLimit(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		app := newLimitedApp(&countingAllower{}, 3)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		app := newLimitedApp(&countingAllower{}, 1)

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, "60", resp.Header.Get("Retry-After"))
	})

	t.Run("storage failure lets the request through", func(t *testing.T) {
		app := newLimitedApp(&countingAllower{err: errors.New("db down")}, 1)

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("disabled without limiter", func(t *testing.T) {
		app := newLimitedApp(nil, 1)

		for i := 0; i < 3; i++ {
			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
		}
	})
}
