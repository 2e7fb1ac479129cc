package tenantcache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/cache"
	"github.com/StoreKeel/StoreKeel/internal/pkg/session"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

const cacheKeyPrefix = "tenant:cache:"

// cacheEntry is the stored form of a tenant. The JSON tags on models.Tenant
// hide the password and platform token from API responses, so marshaling the
// model directly would hand every cache hit a disconnected tenant. The entry
// carries the hidden fields explicitly.
type cacheEntry struct {
	Tenant        models.Tenant `json:"tenant"`
	Password      string        `json:"password"`
	PlatformToken *string       `json:"platform_token"`
}

// Cache resolves the currently signed-in caller to a hydrated tenant row,
// backed by Redis. Entries have no expiry of their own; they are removed
// explicitly on logout or uninstall.
type Cache struct {
	tenants repository.TenantRepository
}

// New creates a tenant session cache over the given tenant repository.
func New(tenants repository.TenantRepository) *Cache {
	return &Cache{tenants: tenants}
}

// CacheKey derives the cache key for a tenant id. The derivation is pure and
// stable so external callers can bust the entry for any tenant.
func CacheKey(tenantID uint) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, tenantID)
}

// LoggedOnCacheKey derives the cache key for the caller's session identity,
// or "" when the caller has none.
func LoggedOnCacheKey(c *fiber.Ctx) string {
	id := sessionTenantID(c)
	if id == 0 {
		return ""
	}
	return CacheKey(id)
}

// GetLoggedOnTenant returns the tenant for the current session. With
// forceRefresh false a cached entry wins; otherwise the identity is
// re-resolved against the store and the entry rewritten. Returns nil without
// error when the caller has no session identity or the identity no longer
// resolves to a stored tenant (deleted after login).
func (tc *Cache) GetLoggedOnTenant(c *fiber.Ctx, forceRefresh bool) (*models.Tenant, error) {
	id := sessionTenantID(c)
	if id == 0 {
		return nil, nil
	}

	if !forceRefresh {
		if cached, ok := tc.fromCache(id); ok {
			return cached, nil
		}
	}

	return tc.refresh(id)
}

// SetLoggedOnTenantInCache unconditionally re-resolves the session identity
// and overwrites the cache entry.
func (tc *Cache) SetLoggedOnTenantInCache(c *fiber.Ctx) (*models.Tenant, error) {
	id := sessionTenantID(c)
	if id == 0 {
		return nil, nil
	}
	return tc.refresh(id)
}

// ClearLoggedOnTenant removes the cache entry for the current caller.
func (tc *Cache) ClearLoggedOnTenant(c *fiber.Ctx) error {
	id := sessionTenantID(c)
	if id == 0 {
		return nil
	}
	return cache.Delete(CacheKey(id))
}

// ClearTenant removes the cache entry for an arbitrary tenant id, independent
// of whose session is active. Used by uninstall processing.
func (tc *Cache) ClearTenant(tenantID uint) error {
	return cache.Delete(CacheKey(tenantID))
}

// refresh loads the tenant from the store and rewrites the cache entry.
func (tc *Cache) refresh(id uint) (*models.Tenant, error) {
	tenant, err := tc.tenants.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Row vanished after login; drop any stale entry.
			_ = cache.Delete(CacheKey(id))
			return nil, nil
		}
		return nil, err
	}

	entry := cacheEntry{
		Tenant:        *tenant,
		Password:      tenant.Password,
		PlatformToken: tenant.PlatformToken,
	}
	if raw, err := json.Marshal(entry); err == nil {
		_ = cache.Set(CacheKey(id), raw, 0)
	}
	return tenant, nil
}

func (tc *Cache) fromCache(id uint) (*models.Tenant, bool) {
	raw, err := cache.Get(CacheKey(id))
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to a store read.
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		_ = cache.Delete(CacheKey(id))
		return nil, false
	}
	tenant := entry.Tenant
	tenant.Password = entry.Password
	tenant.PlatformToken = entry.PlatformToken
	return &tenant, true
}

// sessionTenantID reads the caller's tenant id from the active session,
// falling back to the request-scoped tenant context.
func sessionTenantID(c *fiber.Ctx) uint {
	if store := session.GetSessionStore(); store != nil {
		if sess, err := store.Get(c); err == nil {
			switch v := sess.Get(tenantcontext.KeyTenantID).(type) {
			case uint:
				return v
			case int:
				if v > 0 {
					return uint(v)
				}
			case int64:
				if v > 0 {
					return uint(v)
				}
			case float64:
				if v > 0 {
					return uint(v)
				}
			}
		}
	}
	return tenantcontext.GetTenantID(c)
}
