package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/session"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

// signInTenant verifies the password and writes the tenant identity into the
// caller's session. The handshake and auth-result flows both funnel through
// here so session shape stays identical on every path.
func signInTenant(c *fiber.Ctx, tenants repository.TenantRepository, tenant *models.Tenant, password string) error {
	if !tenant.CheckPassword(password) {
		return fmt.Errorf("sign-in failed for %s: derived password mismatch", tenant.LoginName)
	}

	store := session.GetSessionStore()
	if store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("sign-in failed for %s: %w", tenant.LoginName, err)
	}

	sess.Set(tenantcontext.AuthKey, true)
	sess.Set(tenantcontext.KeyTenantID, tenant.ID)
	sess.Set(tenantcontext.KeyLoginName, tenant.LoginName)
	sess.Set(tenantcontext.KeyIsAdmin, tenant.IsAdmin())

	if err := sess.Save(); err != nil {
		return fmt.Errorf("sign-in failed for %s: %w", tenant.LoginName, err)
	}

	now := time.Now()
	tenant.LastLoginAt = &now
	if err := tenants.Update(tenant); err != nil {
		// Login bookkeeping only; the session is already established.
		return nil
	}
	return nil
}

// signOut drops the caller's session.
func signOut(c *fiber.Ctx) {
	store := session.GetSessionStore()
	if store == nil {
		return
	}
	if sess, err := store.Get(c); err == nil {
		_ = sess.Destroy()
	}
}
