package middleware

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"hearth/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracing(t *testing.T) {
	t.Helper()

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "hearth-api-test",
		Environment:  "test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1.0,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })
}

func newTracedApp(t *testing.T) (*fiber.App, *string) {
	t.Helper()

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Use(TracingMiddleware())

	seenTraceID := new(string)
	app.Get("/ping", func(c *fiber.Ctx) error {
		if tid, ok := c.Locals("traceID").(string); ok {
			*seenTraceID = tid
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app, seenTraceID
}

func TestTracingMiddlewareEmitsTraceID(t *testing.T) {
	setupTracing(t)
	app, seenTraceID := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	header := resp.Header.Get("X-Trace-ID")
	assert.Len(t, header, 32)
	assert.NotEqual(t, strings.Repeat("0", 32), header)
	assert.Equal(t, header, *seenTraceID)
}

func TestTracingMiddlewareHonorsIncomingTraceparent(t *testing.T) {
	setupTracing(t)
	app, _ := newTracedApp(t)

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get("X-Trace-ID"))
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: "hearth-api-test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
