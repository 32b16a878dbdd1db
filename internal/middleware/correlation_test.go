package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func correlationTestApp() *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDKeepsCallerValue(t *testing.T) {
	app := correlationTestApp()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "portal-abc-123")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "portal-abc-123", resp.Header.Get("X-Correlation-ID"))
}

func TestCorrelationIDGeneratedWhenMissing(t *testing.T) {
	app := correlationTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestContextWithCorrelationRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelation(nil, " portal-xyz ")
	require.Equal(t, "portal-xyz", CorrelationIDFromContext(ctx))
	require.Empty(t, CorrelationIDFromContext(nil))
}
