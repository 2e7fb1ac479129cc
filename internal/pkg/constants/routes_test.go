package constants

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathForResolvesRegisteredRouteName(t *testing.T) {
	app := fiber.New()
	app.Get("/custom/handshake", func(c *fiber.Ctx) error {
		return c.SendString(PathFor(c, RouteHandshake))
	}).Name(RouteHandshake)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/custom/handshake", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "/custom/handshake", string(body[:n]), "a remounted route resolves to its new path")
}

func TestPathForFallsBackToDefaultPath(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		return c.SendString(PathFor(c, RouteChoosePlan))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/x", nil), -1)
	require.NoError(t, err)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, PathChoosePlan, string(body[:n]))
}

func TestPathForUnknownNameIsRoot(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		return c.SendString(PathFor(c, "no.such.route"))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/x", nil), -1)
	require.NoError(t, err)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "/", string(body[:n]))
}
