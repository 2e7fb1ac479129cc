package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
)

// RequireActiveSubscription gates the app area on a collectable recurring
// charge. Admin tenants pass without any platform call. A tenant without a
// platform token is sent back through the handshake; one without a charge is
// sent to plan selection. Any other charge state clears the stored charge
// triple plus the session cache entry and re-enters the handshake. A platform
// transport failure propagates as an error.
func RequireActiveSubscription(c *fiber.Ctx) error {
	deps := getGuardDeps()

	tenant, err := deps.TenantCache.GetLoggedOnTenant(c, false)
	if err != nil {
		return fmt.Errorf("subscription guard: resolving tenant: %w", err)
	}
	if tenant == nil {
		return reconnectRedirect(c, "Please sign in through your storefront.")
	}

	if tenant.IsAdmin() {
		return c.Next()
	}

	if !tenant.HasPlatformToken() {
		return reconnectRedirect(c, "Your store is disconnected. Please reinstall the app.")
	}

	if !tenant.HasActiveCharge() {
		fm := fiber.Map{
			"type":    "warning",
			"message": "Please choose a plan to continue.",
		}
		return flash.WithWarn(c, fm).Redirect(constants.PathFor(c, constants.RouteChoosePlan))
	}

	charge, err := deps.Billing.GetRecurringCharge(c.UserContext(), tenant.LoginName, *tenant.PlatformToken, *tenant.ChargeID)
	if err != nil {
		return fmt.Errorf("subscription guard: fetching charge %d: %w", *tenant.ChargeID, err)
	}

	if charge.IsCollectable() {
		return c.Next()
	}

	// Declined, pending, expired or anything unrecognized: the subscription
	// is dead. Drop the stored charge triple and the cached tenant so the
	// next request sees the disconnected state.
	if err := deps.Tenants.ClearActiveCharge(tenant.ID); err != nil {
		return fmt.Errorf("subscription guard: clearing charge fields for tenant %d: %w", tenant.ID, err)
	}
	// Cache failures degrade to a store read on the next request.
	_ = deps.TenantCache.ClearTenant(tenant.ID)

	return reconnectRedirect(c, "Your subscription is no longer active. Please reconnect.")
}

func reconnectRedirect(c *fiber.Ctx, message string) error {
	fm := fiber.Map{
		"type":    "warning",
		"message": message,
	}
	return flash.WithWarn(c, fm).Redirect(constants.PathFor(c, constants.RouteHandshake))
}
