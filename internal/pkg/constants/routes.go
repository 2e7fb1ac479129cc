package constants

import "github.com/gofiber/fiber/v2"

// Named routes. Redirect targets are resolved through the fiber route
// registry by name so concrete apps can remount paths without touching the
// flows that redirect to them.
const (
	RouteHandshake     = "install.handshake"
	RouteAuthResult    = "install.authresult"
	RouteChoosePlan    = "install.chooseplan"
	RouteSelectPlan    = "install.selectplan"
	RouteChargeResult  = "install.chargeresult"
	RouteUninstallHook = "webhook.uninstall"
	RouteDashboard     = "app.dashboard"
	RoutePlanNotAllowed = "app.plannotallowed"
	RouteLogout        = "app.logout"
	RouteCatalogReload = "admin.catalog.reload"
)

// Default mount paths, used at registration time and as fallbacks when a
// route name is not (yet) registered.
const (
	PathHandshake      = "/install/handshake"
	PathAuthResult     = "/install/authresult"
	PathChoosePlan     = "/install/plans"
	PathSelectPlan     = "/install/plans/select"
	PathChargeResult   = "/install/chargeresult"
	PathUninstallHook  = "/webhooks/uninstall"
	PathDashboard      = "/"
	PathPlanNotAllowed = "/plan-not-allowed"
	PathLogout         = "/logout"
	PathCatalogReload  = "/admin/catalog/reload"
)

var fallbackPaths = map[string]string{
	RouteHandshake:      PathHandshake,
	RouteAuthResult:     PathAuthResult,
	RouteChoosePlan:     PathChoosePlan,
	RouteSelectPlan:     PathSelectPlan,
	RouteChargeResult:   PathChargeResult,
	RouteUninstallHook:  PathUninstallHook,
	RouteDashboard:      PathDashboard,
	RoutePlanNotAllowed: PathPlanNotAllowed,
	RouteLogout:         PathLogout,
	RouteCatalogReload:  PathCatalogReload,
}

// PathFor resolves a route name to its mounted path, falling back to the
// default mount when the app has not registered the name.
func PathFor(c *fiber.Ctx, name string) string {
	if c != nil && c.App() != nil {
		if r := c.App().GetRoute(name); r.Path != "" {
			return r.Path
		}
	}
	if p, ok := fallbackPaths[name]; ok {
		return p
	}
	return "/"
}
