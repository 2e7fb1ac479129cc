package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/env"
	"github.com/StoreKeel/StoreKeel/internal/pkg/hooks"
	"github.com/StoreKeel/StoreKeel/internal/pkg/middleware"
	"github.com/StoreKeel/StoreKeel/internal/pkg/notifications"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
)

// WebhookConfig declares one platform webhook the app wants registered after
// installation. An empty Address synthesizes a default callback under the
// app base URL.
type WebhookConfig struct {
	Topic   string
	Address string
}

// InstallConfig carries the static configuration of the installation flow.
type InstallConfig struct {
	// AppBaseURL is the public base URL redirect/webhook callbacks hang off.
	AppBaseURL string
	// Scopes requested during the platform OAuth handshake.
	Scopes []string
	// Webhooks to register after installation. The uninstall topic is always
	// registered, configured here or not.
	Webhooks []WebhookConfig
}

// InstallController drives the installation-and-billing lifecycle:
// handshake, authorization, account creation, plan selection, recurring
// charge creation and activation.
type InstallController struct {
	billing     platform.BillingAPI
	tenants     repository.TenantRepository
	catalog     *plancatalog.Catalog
	tenantCache *tenantcache.Cache
	lifecycle   *hooks.Lifecycle
	notifier    notifications.Notifier
	config      InstallConfig
}

var installController *InstallController

// InitializeInstallController wires the installation flow. Concrete apps
// pass their lifecycle hooks and webhook configuration here.
func InitializeInstallController(
	billing platform.BillingAPI,
	tenants repository.TenantRepository,
	catalog *plancatalog.Catalog,
	tenantCache *tenantcache.Cache,
	lifecycle *hooks.Lifecycle,
	notifier notifications.Notifier,
	config InstallConfig,
) {
	if config.AppBaseURL == "" {
		config.AppBaseURL = strings.TrimRight(env.GetEnv("APP_BASE_URL", ""), "/")
	}
	if len(config.Scopes) == 0 {
		config.Scopes = strings.Split(env.GetEnv("PLATFORM_SCOPES", "read_products,read_orders"), ",")
	}
	installController = &InstallController{
		billing:     billing,
		tenants:     tenants,
		catalog:     catalog,
		tenantCache: tenantCache,
		lifecycle:   lifecycle,
		notifier:    notifier,
		config:      config,
	}
}

func getInstallController() *InstallController {
	if installController == nil {
		panic("Install controller not initialized. Call InitializeInstallController first.")
	}
	return installController
}

// HandleHandshake is the entry request from the platform. It either signs an
// already-installed storefront back in or starts the OAuth authorization
// round-trip. An inauthentic request is a hard failure.
func HandleHandshake(c *fiber.Ctx) error {
	ic := getInstallController()

	if !ic.billing.IsAuthenticRequest(c) {
		return errors.New("handshake request is not authentic")
	}

	shop := strings.TrimSpace(c.Query("shop"))
	if shop == "" {
		return errors.New("handshake request is missing the shop parameter")
	}

	tenant, err := ic.tenants.GetByLoginName(shop)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("handshake: loading tenant %s: %w", shop, err)
	}

	if tenant != nil && tenant.HasPlatformToken() {
		return ic.signInAndLand(c, tenant)
	}

	authURL, err := ic.billing.AuthorizationURL(shop, ic.config.Scopes, ic.config.AppBaseURL+constants.PathAuthResult)
	if err != nil {
		return fmt.Errorf("handshake: building authorization URL for %s: %w", shop, err)
	}

	return c.Redirect(authURL, fiber.StatusFound)
}

// HandleAuthResult receives the OAuth code from the platform, creates the
// tenant account and signs it in. Token exchange, shop metadata fetch,
// account creation and sign-in failures are all fatal; only webhook creation
// is swallowed and reported through the notifier.
func HandleAuthResult(c *fiber.Ctx) error {
	ic := getInstallController()

	if !ic.billing.IsAuthenticRequest(c) {
		return errors.New("authorization result request is not authentic")
	}

	shop := strings.TrimSpace(c.Query("shop"))
	code := strings.TrimSpace(c.Query("code"))
	if shop == "" {
		return errors.New("authorization result is missing the shop parameter")
	}

	existing, err := ic.tenants.GetByLoginName(shop)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("authorization result: loading tenant %s: %w", shop, err)
	}
	if existing != nil && existing.HasPlatformToken() {
		return ic.signInAndLand(c, existing)
	}

	token, err := ic.billing.Authorize(c.UserContext(), shop, code)
	if err != nil {
		return fmt.Errorf("token exchange with the platform failed for %s: %w", shop, err)
	}

	shopInfo, err := ic.billing.GetShop(c.UserContext(), shop, token)
	if err != nil {
		return fmt.Errorf("fetching shop metadata failed for %s: %w", shop, err)
	}

	password := models.DerivePassword(shopInfo.Domain, shopInfo.Email)
	tenant, err := models.CreateTenant(shopInfo.Domain, shopInfo.Email, password)
	if err != nil {
		return fmt.Errorf("account creation failed for %s: %w", shop, err)
	}
	tenant.PlatformToken = &token
	if err := ic.tenants.Create(tenant); err != nil {
		return fmt.Errorf("account creation failed for %s: %w", shop, err)
	}

	// The uninstall webhook is mandatory, but a failure to register it must
	// never abort an otherwise successful installation.
	if err := ic.createUninstallWebhook(c, tenant, token); err != nil {
		ic.notifier.WebhookCreationFailed(tenant, models.TopicAppUninstalled, err)
	}

	if err := signInTenant(c, ic.tenants, tenant, password); err != nil {
		return fmt.Errorf("sign-in after account creation failed: %w", err)
	}
	ic.lifecycle.FireLoggedIn(tenant)

	if _, err := ic.tenantCache.SetLoggedOnTenantInCache(c); err != nil {
		return fmt.Errorf("priming tenant cache after sign-in: %w", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Welcome! Please choose a plan to finish the installation.",
	}
	return flash.WithSuccess(c, fm).Redirect(constants.PathFor(c, constants.RouteChoosePlan))
}

// HandleChoosePlan lists the plans the tenant may move to. Dev plans are
// only visible to admins calling from a privileged address.
func HandleChoosePlan(c *fiber.Ctx) error {
	ic := getInstallController()

	tenant, err := ic.tenantCache.GetLoggedOnTenant(c, false)
	if err != nil {
		return fmt.Errorf("choose plan: resolving tenant: %w", err)
	}
	if tenant == nil {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}

	includeDev := middleware.IsPrivilegedRequest(c) && tenant.IsAdmin()
	upgrades, err := ic.catalog.GetAvailableUpgrades(tenant.CurrentPlanID(), includeDev)
	if err != nil {
		return fmt.Errorf("choose plan: loading catalogue: %w", err)
	}

	return c.Render("plans", fiber.Map{
		"Title":         "Choose a plan",
		"Tenant":        tenant,
		"Plans":         upgrades,
		"CurrentPlanID": tenant.CurrentPlanID(),
		"SelectPath":    constants.PathFor(c, constants.RouteSelectPlan),
		"Flash":         flash.Get(c),
	})
}

// HandleSelectedPlan validates the selection and sends the browser to the
// platform's charge confirmation page. Every failure here is recoverable:
// warn and return to plan selection.
func HandleSelectedPlan(c *fiber.Ctx) error {
	ic := getInstallController()

	tenant, err := ic.tenantCache.GetLoggedOnTenant(c, false)
	if err != nil {
		return fmt.Errorf("plan selection: resolving tenant: %w", err)
	}
	if tenant == nil {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}

	planID := int64(c.QueryInt("plan_id"))

	// Privileged callers may downgrade; everyone else only moves up.
	if planID < tenant.CurrentPlanID() && !middleware.IsPrivilegedRequest(c) {
		return ic.backToPlans(c, "That plan is not a valid upgrade for your account.")
	}

	plan, err := ic.catalog.GetByID(planID)
	if err != nil {
		return ic.backToPlans(c, "The selected plan could not be found.")
	}

	if !tenant.HasPlatformToken() {
		return ic.backToPlans(c, "Your store is disconnected from the platform.")
	}

	charge, err := ic.billing.CreateRecurringCharge(c.UserContext(), tenant.LoginName, *tenant.PlatformToken, platform.ChargeSpec{
		Name:      plan.Name,
		Price:     plan.Price,
		TrialDays: plan.TrialDays,
		Test:      plan.IsTest,
		ReturnURL: ic.config.AppBaseURL + constants.PathChargeResult,
	})
	if err != nil {
		return ic.backToPlans(c, "The platform could not create the charge. Please try again.")
	}

	return c.Redirect(charge.ConfirmationURL, fiber.StatusFound)
}

// HandleChargeResult finishes the billing flow after the merchant decided on
// the confirmation page. Safe to repeat for an already-activated charge: the
// status reads active again and the same values are re-persisted.
func HandleChargeResult(c *fiber.Ctx) error {
	ic := getInstallController()

	tenant, err := ic.tenantCache.GetLoggedOnTenant(c, false)
	if err != nil {
		return fmt.Errorf("charge result: resolving tenant: %w", err)
	}
	if tenant == nil {
		return c.Redirect(constants.PathFor(c, constants.RouteHandshake), fiber.StatusSeeOther)
	}
	if !tenant.HasPlatformToken() {
		return ic.backToPlans(c, "Your store is disconnected from the platform.")
	}

	// Captured before anything changes; this decides upgrade vs. new install.
	priorPlanID := tenant.CurrentPlanID()

	chargeID := int64(c.QueryInt("charge_id"))
	token := *tenant.PlatformToken

	charge, err := ic.billing.GetRecurringCharge(c.UserContext(), tenant.LoginName, token, chargeID)
	if err != nil {
		return ic.backToPlans(c, "The charge could not be loaded from the platform.")
	}

	plan, err := ic.catalog.GetByName(charge.Name)
	if err != nil {
		return ic.backToPlans(c, "The charged plan is not part of the catalogue.")
	}

	switch charge.Status {
	case platform.ChargeStatusAccepted:
		if err := ic.billing.ActivateRecurringCharge(c.UserContext(), tenant.LoginName, token, chargeID); err != nil {
			return ic.backToPlans(c, "The charge could not be activated. Please try again.")
		}
		charge, err = ic.billing.GetRecurringCharge(c.UserContext(), tenant.LoginName, token, chargeID)
		if err != nil {
			return ic.backToPlans(c, "The charge could not be verified after activation.")
		}
		if charge.Status != platform.ChargeStatusActive {
			return ic.backToPlans(c, "The charge did not become active. Please try again.")
		}
		return ic.finishActivation(c, tenant, charge, plan, priorPlanID)

	case platform.ChargeStatusActive:
		// Repeated charge result for an already-activated charge.
		return ic.finishActivation(c, tenant, charge, plan, priorPlanID)

	case platform.ChargeStatusDeclined:
		ic.lifecycle.FireChargeDeclined(tenant)
		if priorPlanID <= 0 {
			// Nothing to fall back to; hand the merchant back to the
			// platform's own admin area.
			return c.Redirect("https://"+tenant.LoginName+"/admin", fiber.StatusFound)
		}
		fm := fiber.Map{
			"type":    "danger",
			"message": "The plan change was declined. Your previous plan is still active.",
		}
		return flash.WithError(c, fm).Redirect(constants.PathFor(c, constants.RouteDashboard))

	default:
		return ic.backToPlans(c, "The charge is in an unexpected state. Please try again.")
	}
}

// finishActivation persists the activated charge and branches between a plan
// change and a brand-new installation.
func (ic *InstallController) finishActivation(c *fiber.Ctx, tenant *models.Tenant, charge *platform.Charge, plan *models.Plan, priorPlanID int64) error {
	billingOn := time.Now()
	if charge.BillingOn != nil {
		billingOn = *charge.BillingOn
	}
	if err := ic.tenants.SetActiveCharge(tenant.ID, charge.ID, plan.ID, billingOn); err != nil {
		ic.notifier.PaymentInfoSaveFailed(tenant, charge.ID, err)
		return ic.backToPlans(c, "Your payment could not be saved. Please try again.")
	}

	refreshed, err := ic.tenantCache.GetLoggedOnTenant(c, true)
	if err == nil && refreshed != nil {
		tenant = refreshed
	}

	if priorPlanID > 0 && priorPlanID != plan.ID {
		ic.lifecycle.FirePlanChanged(tenant, priorPlanID, plan.ID)
		ic.notifier.Upgraded(tenant, priorPlanID, plan.ID)
		fm := fiber.Map{
			"type":    "success",
			"message": fmt.Sprintf("Your plan was changed to %s.", plan.Name),
		}
		return flash.WithSuccess(c, fm).Redirect(constants.PathFor(c, constants.RouteDashboard))
	}

	// New installation.
	ic.lifecycle.FirePostInstallation(tenant)
	ic.notifier.Installed(tenant, plan.Name)
	ic.createConfiguredWebhooks(c, tenant)

	fm := fiber.Map{
		"type":    "success",
		"message": fmt.Sprintf("Installation complete. Welcome to the %s plan!", plan.Name),
	}
	return flash.WithSuccess(c, fm).Redirect(constants.PathFor(c, constants.RouteDashboard))
}

// signInAndLand signs an already-authorized tenant in with the derived
// password and lands it on the dashboard.
func (ic *InstallController) signInAndLand(c *fiber.Ctx, tenant *models.Tenant) error {
	password := models.DerivePassword(tenant.LoginName, tenant.Email)
	if err := signInTenant(c, ic.tenants, tenant, password); err != nil {
		return err
	}
	ic.lifecycle.FireLoggedIn(tenant)

	if _, err := ic.tenantCache.SetLoggedOnTenantInCache(c); err != nil {
		return fmt.Errorf("priming tenant cache after sign-in: %w", err)
	}

	fm := fiber.Map{
		"type":    "success",
		"message": "Welcome back!",
	}
	return flash.WithSuccess(c, fm).Redirect(constants.PathFor(c, constants.RouteDashboard))
}

// createUninstallWebhook registers the mandatory uninstall webhook, using the
// configured callback for the topic or a synthesized default.
func (ic *InstallController) createUninstallWebhook(c *fiber.Ctx, tenant *models.Tenant, token string) error {
	address := ic.config.AppBaseURL + constants.PathUninstallHook
	for _, wh := range ic.config.Webhooks {
		if wh.Topic == models.TopicAppUninstalled && wh.Address != "" {
			address = wh.Address
			break
		}
	}

	_, err := ic.billing.CreateWebhook(c.UserContext(), tenant.LoginName, token, platform.Webhook{
		Address: address,
		Topic:   models.TopicAppUninstalled,
	})
	return err
}

// createConfiguredWebhooks registers the app's remaining webhooks after a new
// installation. The uninstall topic was already handled during AuthResult.
// Failures are reported but never fail the installation.
func (ic *InstallController) createConfiguredWebhooks(c *fiber.Ctx, tenant *models.Tenant) {
	if !tenant.HasPlatformToken() {
		return
	}
	for _, wh := range ic.config.Webhooks {
		if wh.Topic == models.TopicAppUninstalled {
			continue
		}
		address := wh.Address
		if address == "" {
			address = ic.config.AppBaseURL + "/webhooks/" + strings.ReplaceAll(wh.Topic, "/", "-")
		}
		if _, err := ic.billing.CreateWebhook(c.UserContext(), tenant.LoginName, *tenant.PlatformToken, platform.Webhook{
			Address: address,
			Topic:   wh.Topic,
		}); err != nil {
			ic.notifier.WebhookCreationFailed(tenant, wh.Topic, err)
		}
	}
}

func (ic *InstallController) backToPlans(c *fiber.Ctx, message string) error {
	fm := fiber.Map{
		"type":    "warning",
		"message": message,
	}
	return flash.WithWarn(c, fm).Redirect(constants.PathFor(c, constants.RouteChoosePlan))
}
