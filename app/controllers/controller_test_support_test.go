package controllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/hooks"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
	"github.com/StoreKeel/StoreKeel/internal/pkg/platform"
	"github.com/StoreKeel/StoreKeel/internal/pkg/session"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcache"
	"github.com/StoreKeel/StoreKeel/internal/pkg/tenantcontext"
)

// stubTenantRepo is an in-memory tenant store.
type stubTenantRepo struct {
	seq     uint
	byID    map[uint]*models.Tenant
	deleted []uint

	setChargeErr error
	deleteErr    error
	setCharges   []setChargeCall
}

type setChargeCall struct {
	TenantID  uint
	ChargeID  int64
	PlanID    int64
	BillingOn time.Time
}

func newStubTenantRepo(baseID uint) *stubTenantRepo {
	return &stubTenantRepo{seq: baseID, byID: map[uint]*models.Tenant{}}
}

func (s *stubTenantRepo) add(t *models.Tenant) *models.Tenant {
	if t.ID == 0 {
		s.seq++
		t.ID = s.seq
	}
	s.byID[t.ID] = t
	return t
}

func (s *stubTenantRepo) Create(t *models.Tenant) error {
	s.add(t)
	return nil
}

func (s *stubTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *stubTenantRepo) GetByLoginName(name string) (*models.Tenant, error) {
	for _, t := range s.byID {
		if t.LoginName == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubTenantRepo) Update(t *models.Tenant) error {
	if _, ok := s.byID[t.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *t
	s.byID[t.ID] = &cp
	return nil
}

func (s *stubTenantRepo) SetActiveCharge(id uint, chargeID, planID int64, billingOn time.Time) error {
	if s.setChargeErr != nil {
		return s.setChargeErr
	}
	t, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.SetActiveCharge(chargeID, planID, billingOn)
	s.setCharges = append(s.setCharges, setChargeCall{TenantID: id, ChargeID: chargeID, PlanID: planID, BillingOn: billingOn})
	return nil
}

func (s *stubTenantRepo) ClearActiveCharge(id uint) error {
	t, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.ClearActiveCharge()
	return nil
}

func (s *stubTenantRepo) Delete(id uint) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubTenantRepo) List(offset, limit int) ([]models.Tenant, error) {
	ids := make([]uint, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.Tenant, 0, limit)
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *s.byID[id])
	}
	return out, nil
}

func (s *stubTenantRepo) Count() (int64, error) { return int64(len(s.byID)), nil }

// stubPlanRepo serves a fixed catalogue.
type stubPlanRepo struct {
	plans []models.Plan
}

func (s *stubPlanRepo) Create(*models.Plan) error              { return nil }
func (s *stubPlanRepo) GetAll() ([]models.Plan, error)         { return s.plans, nil }
func (s *stubPlanRepo) GetByID(int64) (*models.Plan, error)    { return nil, gorm.ErrRecordNotFound }
func (s *stubPlanRepo) GetByName(string) (*models.Plan, error) { return nil, gorm.ErrRecordNotFound }
func (s *stubPlanRepo) Update(*models.Plan) error              { return nil }
func (s *stubPlanRepo) Delete(int64) error                     { return nil }
func (s *stubPlanRepo) Count() (int64, error)                  { return int64(len(s.plans)), nil }

func testCatalog() *plancatalog.Catalog {
	return plancatalog.New(&stubPlanRepo{plans: []models.Plan{
		{ID: 1, Name: "Dev", IsDev: true},
		{ID: 2, Name: "Starter", Price: 9.90},
		{ID: 3, Name: "Pro", Price: 19.90, TrialDays: 14},
		{ID: 4, Name: "Business", Price: 49.90},
	}})
}

// stubEventRepo records webhook events in memory.
type stubEventRepo struct {
	seq       uint
	rows      []*models.PlatformEvent
	createErr error
	marks     []eventMark
}

type eventMark struct {
	ID  uint
	Err string
}

func (s *stubEventRepo) CreateIfNotExists(event *models.PlatformEvent) (bool, *models.PlatformEvent, error) {
	if s.createErr != nil {
		return false, nil, s.createErr
	}
	for _, row := range s.rows {
		if row.Topic == event.Topic && row.EventID == event.EventID {
			cp := *row
			return false, &cp, nil
		}
	}
	s.seq++
	event.ID = s.seq
	s.rows = append(s.rows, event)
	cp := *event
	return true, &cp, nil
}

func (s *stubEventRepo) MarkProcessed(id uint, processingError string) error {
	s.marks = append(s.marks, eventMark{ID: id, Err: processingError})
	return nil
}

func (s *stubEventRepo) ListRecent(limit int) ([]models.PlatformEvent, error) {
	out := make([]models.PlatformEvent, 0, limit)
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *s.rows[i])
	}
	return out, nil
}

// stubBilling is a scriptable platform fake.
type stubBilling struct {
	authentic        bool
	webhookAuthentic bool
	token            string
	shop             *platform.Shop

	authorizeErr error
	shopErr      error

	charges         map[int64]*platform.Charge
	getChargeErr    error
	createChargeErr error
	confirmationURL string
	activateErr     error
	activateCalls   int

	webhooks   []platform.Webhook
	webhookErr error
}

func (s *stubBilling) IsAuthenticRequest(*fiber.Ctx) bool { return s.authentic }

func (s *stubBilling) IsAuthenticWebhook(string, []byte) bool { return s.webhookAuthentic }

func (s *stubBilling) AuthorizationURL(shop string, scopes []string, returnURL string) (string, error) {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?redirect_uri=%s", shop, returnURL), nil
}

func (s *stubBilling) Authorize(_ context.Context, shop, code string) (string, error) {
	if s.authorizeErr != nil {
		return "", s.authorizeErr
	}
	return s.token, nil
}

func (s *stubBilling) GetShop(context.Context, string, string) (*platform.Shop, error) {
	if s.shopErr != nil {
		return nil, s.shopErr
	}
	return s.shop, nil
}

func (s *stubBilling) CreateWebhook(_ context.Context, _, _ string, webhook platform.Webhook) (*platform.Webhook, error) {
	if s.webhookErr != nil {
		return nil, s.webhookErr
	}
	webhook.ID = int64(len(s.webhooks) + 1)
	s.webhooks = append(s.webhooks, webhook)
	return &webhook, nil
}

func (s *stubBilling) CreateRecurringCharge(_ context.Context, _, _ string, spec platform.ChargeSpec) (*platform.Charge, error) {
	if s.createChargeErr != nil {
		return nil, s.createChargeErr
	}
	charge := &platform.Charge{
		ID:              int64(1000 + len(s.charges)),
		Name:            spec.Name,
		Price:           spec.Price,
		TrialDays:       spec.TrialDays,
		Test:            spec.Test,
		Status:          platform.ChargeStatusPending,
		ConfirmationURL: s.confirmationURL,
	}
	if s.charges == nil {
		s.charges = map[int64]*platform.Charge{}
	}
	s.charges[charge.ID] = charge
	return charge, nil
}

func (s *stubBilling) GetRecurringCharge(_ context.Context, _, _ string, chargeID int64) (*platform.Charge, error) {
	if s.getChargeErr != nil {
		return nil, s.getChargeErr
	}
	charge, ok := s.charges[chargeID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	cp := *charge
	return &cp, nil
}

func (s *stubBilling) ActivateRecurringCharge(_ context.Context, _, _ string, chargeID int64) error {
	s.activateCalls++
	if s.activateErr != nil {
		return s.activateErr
	}
	charge, ok := s.charges[chargeID]
	if !ok {
		return platform.ErrNotFound
	}
	charge.Status = platform.ChargeStatusActive
	return nil
}

// recordingNotifier captures every notification.
type recordingNotifier struct {
	webhookFailures []string
	installed       []string
	upgraded        [][2]int64
	uninstalled     []uint
	paymentFailures []int64
}

func (r *recordingNotifier) WebhookCreationFailed(_ *models.Tenant, topic string, _ error) bool {
	r.webhookFailures = append(r.webhookFailures, topic)
	return true
}
func (r *recordingNotifier) Installed(_ *models.Tenant, planName string) bool {
	r.installed = append(r.installed, planName)
	return true
}
func (r *recordingNotifier) Upgraded(_ *models.Tenant, oldPlanID, newPlanID int64) bool {
	r.upgraded = append(r.upgraded, [2]int64{oldPlanID, newPlanID})
	return true
}
func (r *recordingNotifier) Uninstalled(tenantID uint, _ string) bool {
	r.uninstalled = append(r.uninstalled, tenantID)
	return true
}
func (r *recordingNotifier) PaymentInfoSaveFailed(_ *models.Tenant, chargeID int64, _ error) bool {
	r.paymentFailures = append(r.paymentFailures, chargeID)
	return true
}

// lifecycleRecorder captures fired lifecycle hooks by name.
type lifecycleRecorder struct {
	fired       []string
	planChanges [][2]int64
}

func (r *lifecycleRecorder) hooks() *hooks.Lifecycle {
	return &hooks.Lifecycle{
		LoggedIn:         func(*models.Tenant) { r.fired = append(r.fired, "LoggedIn") },
		PostInstallation: func(*models.Tenant) { r.fired = append(r.fired, "PostInstallation") },
		ChargeDeclined:   func(*models.Tenant) { r.fired = append(r.fired, "ChargeDeclined") },
		TenantDeleted:    func(*models.Tenant) { r.fired = append(r.fired, "TenantDeleted") },
		TenantDeleteFailed: func(*models.Tenant, error) {
			r.fired = append(r.fired, "TenantDeleteFailed")
		},
		UninstallFinished: func(uint) { r.fired = append(r.fired, "UninstallFinished") },
		PlanChanged: func(_ *models.Tenant, oldPlanID, newPlanID int64) {
			r.fired = append(r.fired, "PlanChanged")
			r.planChanges = append(r.planChanges, [2]int64{oldPlanID, newPlanID})
		},
	}
}

func (r *lifecycleRecorder) has(name string) bool {
	for _, f := range r.fired {
		if f == name {
			return true
		}
	}
	return false
}

// installTestEnv bundles the fakes one install-flow test works against.
type installTestEnv struct {
	repo     *stubTenantRepo
	billing  *stubBilling
	notifier *recordingNotifier
	life     *lifecycleRecorder
	catalog  *plancatalog.Catalog
	cache    *tenantcache.Cache
}

func newInstallTestEnv(baseID uint) *installTestEnv {
	repo := newStubTenantRepo(baseID)
	return &installTestEnv{
		repo:     repo,
		billing:  &stubBilling{authentic: true, webhookAuthentic: true, token: "tok-1"},
		notifier: &recordingNotifier{},
		life:     &lifecycleRecorder{},
		catalog:  testCatalog(),
		cache:    tenantcache.New(repo),
	}
}

// newInstallApp initializes the install controller against the env's fakes
// and mounts the install routes. actAsID > 0 authenticates every request as
// that tenant.
func (e *installTestEnv) newInstallApp(actAsID uint) *fiber.App {
	session.NewInMemorySessionStore()

	InitializeInstallController(e.billing, e.repo, e.catalog, e.cache, e.life.hooks(), e.notifier, InstallConfig{
		AppBaseURL: "https://app.example.com",
		Scopes:     []string{"read_products", "read_orders"},
		Webhooks: []WebhookConfig{
			{Topic: models.TopicAppUninstalled},
			{Topic: "orders/create"},
		},
	})

	app := fiber.New(fiber.Config{
		Views: html.New("../../views", ".html"),
	})
	if actAsID > 0 {
		app.Use(func(c *fiber.Ctx) error {
			tenantcontext.SetTenantContext(c, tenantcontext.TenantContext{
				TenantID:   actAsID,
				IsLoggedIn: true,
			})
			return c.Next()
		})
	}

	app.Get(constants.PathHandshake, HandleHandshake)
	app.Get(constants.PathAuthResult, HandleAuthResult)
	app.Get(constants.PathChoosePlan, HandleChoosePlan)
	app.Get(constants.PathSelectPlan, HandleSelectedPlan)
	app.Get(constants.PathChargeResult, HandleChargeResult)
	return app
}

func tenantcacheFor(repo *stubTenantRepo) *tenantcache.Cache {
	return tenantcache.New(repo)
}

var errBoom = errors.New("boom")
