package repository

import (
	"strings"
	"time"

	"github.com/StoreKeel/StoreKeel/app/models"
	"gorm.io/gorm"
)

// tenantRepository implements the TenantRepository interface
type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository instance
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create creates a new tenant in the database
func (r *tenantRepository) Create(tenant *models.Tenant) error {
	return r.db.Create(tenant).Error
}

// GetByID retrieves a tenant by its ID
func (r *tenantRepository) GetByID(id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByLoginName retrieves a tenant by its storefront domain
func (r *tenantRepository) GetByLoginName(loginName string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.Where("login_name = ?", strings.ToLower(strings.TrimSpace(loginName))).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// Update saves all tenant fields
func (r *tenantRepository) Update(tenant *models.Tenant) error {
	return r.db.Save(tenant).Error
}

// SetActiveCharge writes charge id, plan id and billing timestamp in one
// UPDATE. The billing period start comes from the platform's charge record.
func (r *tenantRepository) SetActiveCharge(id uint, chargeID, planID int64, billingOn time.Time) error {
	if billingOn.IsZero() {
		billingOn = time.Now()
	}
	return r.db.Model(&models.Tenant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"charge_id":  chargeID,
		"plan_id":    planID,
		"billing_on": &billingOn,
	}).Error
}

// ClearActiveCharge nulls the charge triple in one UPDATE.
func (r *tenantRepository) ClearActiveCharge(id uint) error {
	return r.db.Model(&models.Tenant{}).Where("id = ?", id).Updates(map[string]interface{}{
		"charge_id":  nil,
		"plan_id":    nil,
		"billing_on": nil,
	}).Error
}

// Delete removes a tenant row for good. A soft delete would keep the unique
// login name occupied and block the storefront from ever reinstalling.
func (r *tenantRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Tenant{}, id).Error
}

// List returns tenants with pagination
func (r *tenantRepository) List(offset, limit int) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.Offset(offset).Limit(limit).Order("id ASC").Find(&tenants).Error
	return tenants, err
}

// Count returns the total number of tenants
func (r *tenantRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Tenant{}).Count(&count).Error
	return count, err
}
