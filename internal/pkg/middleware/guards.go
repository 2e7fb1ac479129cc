package middleware

import (
	"sync"

	"github.com/StoreKeel/StoreKeel/app/repository"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
)

// GuardDeps carries the shared state the access guards consult. Guards are
// pure decision functions over this state plus the request.
type GuardDeps struct {
	Tenants     repository.TenantRepository
	Catalog     *plancatalog.Catalog
	TenantCache *tenantcache.Cache
	Billing     platform.BillingAPI
}

var (
	guardMu   sync.RWMutex
	guardDeps GuardDeps
)

// SetupGuards wires the guard middlewares. Must run before routes using
// RequirePlan or RequireActiveSubscription are served.
func SetupGuards(deps GuardDeps) {
	guardMu.Lock()
	guardDeps = deps
	guardMu.Unlock()
}

func getGuardDeps() GuardDeps {
	guardMu.RLock()
	defer guardMu.RUnlock()
	return guardDeps
}
