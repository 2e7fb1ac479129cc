package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInPrivilegedIpList(t *testing.T) {
	t.Setenv("PRIVILEGED_IPS", "203.0.113.10, 198.51.100.7")

	assert.True(t, IsInPrivilegedIpList("203.0.113.10"))
	assert.True(t, IsInPrivilegedIpList("198.51.100.7"))
	assert.False(t, IsInPrivilegedIpList("203.0.113.11"))
	// Exact match only, no prefix or CIDR semantics.
	assert.False(t, IsInPrivilegedIpList("203.0.113.1"))
	assert.False(t, IsInPrivilegedIpList(""))
}

func TestIsInPrivilegedIpListEmptyConfig(t *testing.T) {
	t.Setenv("PRIVILEGED_IPS", "")

	assert.False(t, IsInPrivilegedIpList("203.0.113.10"))
}

func TestRequirePrivilegedIPAllowsLocalCalls(t *testing.T) {
	t.Setenv("PRIVILEGED_IPS", "")

	// In-process test requests carry identical local and remote addresses,
	// which counts as a local call.
	app := fiber.New()
	app.Get("/ops", RequirePrivilegedIP, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ops", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
