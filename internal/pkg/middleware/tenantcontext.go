package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/internal/pkg/session"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

// TenantContextMiddleware sets up the complete tenant context for every
// request. This centralizes session handling so controllers and guards read
// one request-scoped value instead of poking the session themselves.
func TenantContextMiddleware(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{})
		c.Locals(tenantcontext.KeyFromProtected, false)
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		// On error: treat the caller as anonymous
		tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{})
		c.Locals(tenantcontext.KeyFromProtected, false)
		return c.Next()
	}

	tenantID := sess.Get(tenantcontext.KeyTenantID)
	if tenantID == nil {
		tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{})
		c.Locals(tenantcontext.KeyFromProtected, false)
		return c.Next()
	}

	id, ok := toUint(tenantID)
	if !ok || id == 0 {
		tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{})
		c.Locals(tenantcontext.KeyFromProtected, false)
		return c.Next()
	}

	loginName, _ := sess.Get(tenantcontext.KeyLoginName).(string)
	isAdmin, _ := sess.Get(tenantcontext.KeyIsAdmin).(bool)

	tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{
		TenantID:   id,
		LoginName:  loginName,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	c.Locals(tenantcontext.KeyFromProtected, true)

	return c.Next()
}

func toUint(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case uint:
		return n, true
	case int:
		if n >= 0 {
			return uint(n), true
		}
	case int64:
		if n >= 0 {
			return uint(n), true
		}
	case float64:
		if n >= 0 {
			return uint(n), true
		}
	}
	return 0, false
}
