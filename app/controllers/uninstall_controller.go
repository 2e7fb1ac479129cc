package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/eventarchive"
	"github.com/StoreKeel/StoreKeel/internal/pkg/hooks"
	"github.com/StoreKeel/StoreKeel/internal/pkg/notifications"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
)

// Webhook HMAC and delivery headers sent by the platform.
const (
	HeaderWebhookSignature = "X-Platform-Hmac-Sha256"
	HeaderWebhookEventID   = "X-Platform-Event-Id"
)

// UninstallController tears an installation down when the platform reports
// the app removed. The platform requires a success response no matter what,
// so every step tolerates failure independently.
type UninstallController struct {
	billing     platform.BillingAPI
	tenants     repository.TenantRepository
	events      repository.PlatformEventRepository
	tenantCache *tenantcache.Cache
	lifecycle   *hooks.Lifecycle
	notifier    notifications.Notifier
	archive     *eventarchive.Archive
}

var uninstallController *UninstallController

// InitializeUninstallController wires the uninstall webhook processing.
// A nil archive disables payload archival.
func InitializeUninstallController(
	billing platform.BillingAPI,
	tenants repository.TenantRepository,
	events repository.PlatformEventRepository,
	tenantCache *tenantcache.Cache,
	lifecycle *hooks.Lifecycle,
	notifier notifications.Notifier,
	archive *eventarchive.Archive,
) {
	uninstallController = &UninstallController{
		billing:     billing,
		tenants:     tenants,
		events:      events,
		tenantCache: tenantCache,
		lifecycle:   lifecycle,
		notifier:    notifier,
		archive:     archive,
	}
}

func getUninstallController() *UninstallController {
	if uninstallController == nil {
		panic("Uninstall controller not initialized. Call InitializeUninstallController first.")
	}
	return uninstallController
}

type uninstallPayload struct {
	TenantID uint `json:"tenant_id"`
}

// HandleUninstallWebhook processes the platform's app/uninstalled delivery.
// Always answers 200: the platform retries forever on anything else and an
// uninstalled shop can never recover the delivery anyway.
func HandleUninstallWebhook(c *fiber.Ctx) error {
	uc := getUninstallController()

	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := strings.TrimSpace(c.Get(HeaderWebhookEventID))
	if eventID == "" {
		eventID = uuid.NewString()
	}
	signature := strings.TrimSpace(c.Get(HeaderWebhookSignature))

	authentic := uc.billing.IsAuthenticWebhook(signature, rawBody)

	// Idempotency log first; a failure here must not block teardown.
	var stored *models.PlatformEvent
	if uc.events != nil {
		var err error
		_, stored, err = uc.events.CreateIfNotExists(&models.PlatformEvent{
			EventID:        eventID,
			Topic:          models.TopicAppUninstalled,
			PayloadJSON:    string(rawBody),
			SignatureValid: authentic,
		})
		if err != nil {
			log.Errorf("[Uninstall] recording event %s: %v", eventID, err)
			stored = nil
		}
	}

	if !authentic {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "authentic": false})
	}

	var payload uninstallPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		log.Errorf("[Uninstall] parsing payload for event %s: %v", eventID, err)
	}

	uc.processUninstall(payload.TenantID, eventID, rawBody, stored, c)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// processUninstall runs the teardown steps. Each step logs and swallows its
// own failure so later steps still run.
func (uc *UninstallController) processUninstall(tenantID uint, eventID string, rawBody []byte, stored *models.PlatformEvent, c *fiber.Ctx) {
	var processingErr error

	var tenant *models.Tenant
	if tenantID > 0 {
		var err error
		tenant, err = uc.tenants.GetByID(tenantID)
		if err != nil {
			// Lookup failure is treated as "not found".
			log.Warnf("[Uninstall] tenant %d lookup: %v", tenantID, err)
			tenant = nil
		}
	}

	loginName := ""
	if tenant != nil {
		loginName = tenant.LoginName

		if err := uc.tenants.Delete(tenant.ID); err != nil {
			processingErr = err
			log.Errorf("[Uninstall] deleting tenant %d: %v", tenant.ID, err)
			uc.lifecycle.FireTenantDeleteFailed(tenant, err)
		} else {
			uc.lifecycle.FireTenantDeleted(tenant)
		}

		if err := uc.tenantCache.ClearTenant(tenant.ID); err != nil {
			log.Warnf("[Uninstall] clearing cache for tenant %d: %v", tenant.ID, err)
		}
	}

	if uc.archive != nil {
		if err := uc.archive.Store(c.UserContext(), models.TopicAppUninstalled, eventID, rawBody); err != nil {
			log.Warnf("[Uninstall] archiving event %s: %v", eventID, err)
		}
	}

	// Found or not, notify and close out.
	if !uc.notifier.Uninstalled(tenantID, loginName) {
		log.Warnf("[Uninstall] notification for tenant %d did not go out", tenantID)
	}
	uc.lifecycle.FireUninstallFinished(tenantID)

	if uc.events != nil && stored != nil {
		msg := ""
		if processingErr != nil {
			msg = processingErr.Error()
		}
		if err := uc.events.MarkProcessed(stored.ID, msg); err != nil {
			log.Warnf("[Uninstall] marking event %s processed: %v", eventID, err)
		}
	}
}
