package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

// fakeTenantRepo serves a single tenant by id and records charge mutations.
type fakeTenantRepo struct {
	tenant          *models.Tenant
	clearedChargeID []uint
}

func (f *fakeTenantRepo) Create(t *models.Tenant) error { t.ID = 1; return nil }
func (f *fakeTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	if f.tenant == nil || f.tenant.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.tenant
	return &cp, nil
}
func (f *fakeTenantRepo) GetByLoginName(name string) (*models.Tenant, error) {
	if f.tenant == nil || f.tenant.LoginName != name {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f.tenant
	return &cp, nil
}
func (f *fakeTenantRepo) Update(t *models.Tenant) error { return nil }
func (f *fakeTenantRepo) SetActiveCharge(id uint, chargeID, planID int64, billingOn time.Time) error {
	return errors.New("not implemented")
}
func (f *fakeTenantRepo) ClearActiveCharge(id uint) error {
	f.clearedChargeID = append(f.clearedChargeID, id)
	if f.tenant != nil && f.tenant.ID == id {
		f.tenant.ClearActiveCharge()
	}
	return nil
}
func (f *fakeTenantRepo) Delete(id uint) error                   { return nil }
func (f *fakeTenantRepo) List(int, int) ([]models.Tenant, error) { return nil, nil }
func (f *fakeTenantRepo) Count() (int64, error)                  { return 0, nil }

// fakeBilling reports a fixed charge status and counts lookups.
type fakeBilling struct {
	chargeStatus   string
	chargeErr      error
	getChargeCalls int
}

func (f *fakeBilling) IsAuthenticRequest(*fiber.Ctx) bool          { return true }
func (f *fakeBilling) IsAuthenticWebhook(string, []byte) bool      { return true }
func (f *fakeBilling) AuthorizationURL(string, []string, string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeBilling) Authorize(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeBilling) GetShop(context.Context, string, string) (*platform.Shop, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBilling) CreateWebhook(context.Context, string, string, platform.Webhook) (*platform.Webhook, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBilling) CreateRecurringCharge(context.Context, string, string, platform.ChargeSpec) (*platform.Charge, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeBilling) GetRecurringCharge(_ context.Context, _, _ string, chargeID int64) (*platform.Charge, error) {
	f.getChargeCalls++
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return &platform.Charge{ID: chargeID, Status: f.chargeStatus}, nil
}
func (f *fakeBilling) ActivateRecurringCharge(context.Context, string, string, int64) error {
	return errors.New("not implemented")
}

// guardTestApp wires the guards against fakes and mounts the given handler
// behind them, with the request pre-authenticated as the repo's tenant.
func guardTestApp(repo *fakeTenantRepo, billing *fakeBilling, catalog *plancatalog.Catalog, handlers ...fiber.Handler) *fiber.App {
	SetupGuards(GuardDeps{
		Tenants:     repo,
		Catalog:     catalog,
		TenantCache: tenantcache.New(repo),
		Billing:     billing,
	})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if repo.tenant != nil {
			tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{
				TenantID:   repo.tenant.ID,
				LoginName:  repo.tenant.LoginName,
				IsLoggedIn: true,
				IsAdmin:    repo.tenant.IsAdmin(),
			})
		}
		return c.Next()
	})

	route := append(handlers, func(c *fiber.Ctx) error {
		return c.SendString("reached")
	})
	app.Get("/guarded", route...)
	return app
}

func testGuardRequest(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, "/guarded", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}
