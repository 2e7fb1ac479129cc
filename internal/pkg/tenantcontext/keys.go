package tenantcontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyTenantID      = "tenant_id"
	KeyLoginName     = "login_name"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
)
