package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
)

// DashboardController serves the app landing area behind the guards.
type DashboardController struct {
	catalog     *plancatalog.Catalog
	tenantCache *tenantcache.Cache
}

var dashboardController *DashboardController

// InitializeDashboardController wires the landing pages.
func InitializeDashboardController(catalog *plancatalog.Catalog, tenantCache *tenantcache.Cache) {
	dashboardController = &DashboardController{
		catalog:     catalog,
		tenantCache: tenantCache,
	}
}

func getDashboardController() *DashboardController {
	if dashboardController == nil {
		panic("Dashboard controller not initialized. Call InitializeDashboardController first.")
	}
	return dashboardController
}

// HandleDashboard renders the app landing page for the signed-on tenant.
func HandleDashboard(c *fiber.Ctx) error {
	dc := getDashboardController()

	tenant, err := dc.tenantCache.GetLoggedOnTenant(c, false)
	if err != nil {
		return fmt.Errorf("dashboard: resolving tenant: %w", err)
	}
	if tenant == nil {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}

	planName := ""
	if tenant.PlanID != nil {
		if plan, err := dc.catalog.GetByID(*tenant.PlanID); err == nil {
			planName = plan.Name
		}
	}

	canUpgrade, _ := dc.catalog.CanUpgrade(tenant.CurrentPlanID(), false)

	return c.Render("dashboard", fiber.Map{
		"Title":      "Dashboard",
		"Tenant":     tenant,
		"PlanName":   planName,
		"CanUpgrade": canUpgrade,
		"PlansPath":  constants.PathFor(c, constants.RouteChoosePlan),
		"Flash":      flash.Get(c),
	})
}

// HandlePlanNotAllowed renders the page a plan guard redirects to.
func HandlePlanNotAllowed(c *fiber.Ctx) error {
	return c.Render("plan_not_allowed", fiber.Map{
		"Title":     "Plan required",
		"PlansPath": constants.PathFor(c, constants.RouteChoosePlan),
		"Flash":     flash.Get(c),
	})
}

// HandleLogout drops the session and the cached tenant entry.
func HandleLogout(c *fiber.Ctx) error {
	dc := getDashboardController()

	_ = dc.tenantCache.ClearLoggedOnTenant(c)
	signOut(c)

	return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
}
