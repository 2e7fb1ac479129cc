package tenantcontext

import "github.com/gofiber/fiber/v2"

// Locals key holding the resolved tenant context for the request
const ContextKey = "TENANT_CONTEXT"

// TenantContext represents the complete caller context for a request
type TenantContext struct {
	TenantID   uint   `json:"tenant_id"`
	LoginName  string `json:"login_name"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
}

// GetTenantContext retrieves the tenant context from fiber context.
// Returns a default anonymous context if none is set.
func GetTenantContext(c *fiber.Ctx) TenantContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(TenantContext)
	}
	return TenantContext{IsLoggedIn: false, IsAdmin: false}
}

// SetTenantContext stores the tenant context on the request
func SetTenantContext(c *fiber.Ctx, tc TenantContext) {
	c.Locals(ContextKey, tc)
}

// IsLoggedIn checks if the current caller is signed in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetTenantContext(c).IsLoggedIn
}

// IsAdmin checks if the current caller is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetTenantContext(c).IsAdmin
}

// GetTenantID returns the current tenant's ID, or 0 if not signed in
func GetTenantID(c *fiber.Ctx) uint {
	return GetTenantContext(c).TenantID
}
