package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

// RequireAuth ensures a signed-on tenant session; redirects to the handshake
// entry point if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !tenantcontext.IsLoggedIn(c) {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAdmin ensures a signed-on admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	if !tenantcontext.IsLoggedIn(c) {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}
	if !tenantcontext.IsAdmin(c) {
		return c.Redirect(constants.PathFor(c, constants.RouteDashboard), fiber.StatusSeeOther)
	}
	return c.Next()
}
