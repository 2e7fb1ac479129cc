package repository

import (
	"time"

	"github.com/StoreKeel/StoreKeel/app/models"
)

// TenantRepository defines the interface for tenant-related database operations
type TenantRepository interface {
	Create(tenant *models.Tenant) error
	GetByID(id uint) (*models.Tenant, error)
	GetByLoginName(loginName string) (*models.Tenant, error)
	Update(tenant *models.Tenant) error
	// SetActiveCharge persists charge id, plan id and billing timestamp in a
	// single update so a stored charge id always carries its plan and period.
	// billingOn is the period start the platform reported for the charge.
	SetActiveCharge(id uint, chargeID, planID int64, billingOn time.Time) error
	// ClearActiveCharge nulls the charge triple, used when the platform
	// reports the subscription as dead.
	ClearActiveCharge(id uint) error
	// Delete removes the row permanently, freeing the login name for a
	// later reinstall of the same storefront.
	Delete(id uint) error
	List(offset, limit int) ([]models.Tenant, error)
	Count() (int64, error)
}

// PlanRepository defines the interface for plan catalogue database operations
type PlanRepository interface {
	Create(plan *models.Plan) error
	// GetAll returns the full catalogue with definitions preloaded, ordered
	// by display order then id.
	GetAll() ([]models.Plan, error)
	GetByID(id int64) (*models.Plan, error)
	GetByName(name string) (*models.Plan, error)
	Update(plan *models.Plan) error
	Delete(id int64) error
	Count() (int64, error)
}

// PlatformEventRepository defines the interface for the webhook idempotency log
type PlatformEventRepository interface {
	// CreateIfNotExists inserts the event unless one with the same topic and
	// event id already exists. Returns whether the row was created plus the
	// stored row either way.
	CreateIfNotExists(event *models.PlatformEvent) (bool, *models.PlatformEvent, error)
	MarkProcessed(id uint, processingError string) error
	ListRecent(limit int) ([]models.PlatformEvent, error)
}
