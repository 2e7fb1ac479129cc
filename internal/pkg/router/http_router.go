package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/app/controllers"
	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/database"
	"github.com/StoreKeel/StoreKeel/internal/pkg/eventarchive"
	"github.com/StoreKeel/StoreKeel/internal/pkg/hooks"
	"github.com/StoreKeel/StoreKeel/internal/pkg/middleware"
	"github.com/StoreKeel/StoreKeel/internal/pkg/notifications"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/session"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
)

// HttpRouter wires the default StoreKeel routes. Concrete apps embed it and
// add their own feature routes behind the same guards.
type HttpRouter struct {
	// Lifecycle lets the embedding app hang callbacks on the install and
	// uninstall flows. Nil slots are no-ops.
	Lifecycle *hooks.Lifecycle
	// Webhooks to register after installation, uninstall topic included.
	Webhooks []controllers.WebhookConfig
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h *HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// shared services
	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()
	billing := platform.NewClientFromEnv()
	catalog := plancatalog.New(repos.Plan)
	tenantCache := tenantcache.New(repos.Tenant)
	notifier := notifications.NewSMTPNotifierFromEnv()
	archive := eventarchive.NewArchiveFromEnv()

	// Apply TenantContext middleware globally as first middleware
	app.Use(middleware.TenantContextMiddleware)

	middleware.SetupGuards(middleware.GuardDeps{
		Tenants:     repos.Tenant,
		Catalog:     catalog,
		TenantCache: tenantCache,
		Billing:     billing,
	})

	controllers.InitializeInstallController(
		billing, repos.Tenant, catalog, tenantCache,
		h.Lifecycle, notifier,
		controllers.InstallConfig{Webhooks: h.Webhooks},
	)
	controllers.InitializeUninstallController(
		billing, repos.Tenant, repos.PlatformEvent, tenantCache,
		h.Lifecycle, notifier, archive,
	)
	controllers.InitializeDashboardController(catalog, tenantCache)
	controllers.InitializeAdminController(catalog, repos.Tenant, repos.PlatformEvent)

	h.registerPublicRoutes(app)
	h.registerAppRoutes(app)
	h.registerAdminRoutes(app)
}

// registerPublicRoutes mounts everything reachable without a session: the
// installation round-trip and the uninstall webhook.
func (h *HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.PathHandshake, controllers.HandleHandshake).Name(constants.RouteHandshake)
	app.Get(constants.PathAuthResult, controllers.HandleAuthResult).Name(constants.RouteAuthResult)
	app.Post(constants.PathUninstallHook, controllers.HandleUninstallWebhook).Name(constants.RouteUninstallHook)
}

// registerAppRoutes mounts the signed-on app area. Plan selection only needs
// a session; the dashboard additionally needs a collectable subscription.
func (h *HttpRouter) registerAppRoutes(app *fiber.App) {
	app.Get(constants.PathChoosePlan, middleware.RequireAuth, controllers.HandleChoosePlan).Name(constants.RouteChoosePlan)
	app.Get(constants.PathSelectPlan, middleware.RequireAuth, controllers.HandleSelectedPlan).Name(constants.RouteSelectPlan)
	app.Get(constants.PathChargeResult, middleware.RequireAuth, controllers.HandleChargeResult).Name(constants.RouteChargeResult)
	app.Get(constants.PathPlanNotAllowed, middleware.RequireAuth, controllers.HandlePlanNotAllowed).Name(constants.RoutePlanNotAllowed)
	app.Get(constants.PathLogout, controllers.HandleLogout).Name(constants.RouteLogout)

	app.Get(constants.PathDashboard,
		middleware.RequireAuth,
		middleware.RequireActiveSubscription,
		controllers.HandleDashboard,
	).Name(constants.RouteDashboard)
}

// registerAdminRoutes mounts operator endpoints behind admin + privileged IP.
func (h *HttpRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group("/admin", middleware.RequireAdmin, middleware.RequirePrivilegedIP)
	admin.Post("/catalog/reload", controllers.HandleCatalogReload).Name(constants.RouteCatalogReload)
	admin.Get("/tenants", controllers.HandleTenantList)
	admin.Get("/events", controllers.HandleEventList)
}
