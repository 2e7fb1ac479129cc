package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
)

// AdminController exposes operator endpoints: catalogue reload, tenant and
// webhook-event inspection. All routes sit behind the admin + privileged-IP
// guards.
type AdminController struct {
	catalog *plancatalog.Catalog
	tenants repository.TenantRepository
	events  repository.PlatformEventRepository
}

var adminController *AdminController

// InitializeAdminController wires the operator endpoints.
func InitializeAdminController(catalog *plancatalog.Catalog, tenants repository.TenantRepository, events repository.PlatformEventRepository) {
	adminController = &AdminController{
		catalog: catalog,
		tenants: tenants,
		events:  events,
	}
}

func getAdminController() *AdminController {
	if adminController == nil {
		panic("Admin controller not initialized. Call InitializeAdminController first.")
	}
	return adminController
}

// HandleCatalogReload forces a fresh plan catalogue read and swaps the
// snapshot. This is the only way the running process picks up plan table
// edits; there is deliberately no timer.
func HandleCatalogReload(c *fiber.Ctx) error {
	ac := getAdminController()

	if err := ac.catalog.Reload(); err != nil {
		return fmt.Errorf("catalogue reload failed: %w", err)
	}

	return c.JSON(fiber.Map{"ok": true, "message": "plan catalogue reloaded"})
}

// HandleTenantList returns a paged tenant listing.
func HandleTenantList(c *fiber.Ctx) error {
	ac := getAdminController()

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	tenants, err := ac.tenants.List(offset, limit)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}
	total, err := ac.tenants.Count()
	if err != nil {
		return fmt.Errorf("counting tenants: %w", err)
	}

	return c.JSON(fiber.Map{
		"tenants": tenants,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

// HandleEventList returns the newest webhook deliveries from the
// idempotency log.
func HandleEventList(c *fiber.Ctx) error {
	ac := getAdminController()

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	events, err := ac.events.ListRecent(limit)
	if err != nil {
		return fmt.Errorf("listing platform events: %w", err)
	}

	return c.JSON(fiber.Map{"events": events})
}
