package repository

import (
	"strings"

	"github.com/StoreKeel/StoreKeel/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new plan with its option definitions
func (r *planRepository) Create(plan *models.Plan) error {
	return r.db.Create(plan).Error
}

// GetAll loads the whole catalogue, definitions included, in catalogue order
func (r *planRepository) GetAll() ([]models.Plan, error) {
	var plans []models.Plan
	err := r.db.Preload("Definitions").Order("display_order ASC, id ASC").Find(&plans).Error
	return plans, err
}

// GetByID retrieves a plan with definitions by its ID
func (r *planRepository) GetByID(id int64) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Definitions").First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByName retrieves a plan with definitions by its unique name
func (r *planRepository) GetByName(name string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Preload("Definitions").Where("name = ?", strings.TrimSpace(name)).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update saves all plan fields
func (r *planRepository) Update(plan *models.Plan) error {
	return r.db.Save(plan).Error
}

// Delete removes a plan and its definitions
func (r *planRepository) Delete(id int64) error {
	if err := r.db.Where("plan_id = ?", id).Delete(&models.PlanDefinition{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Plan{}, id).Error
}

// Count returns the total number of plans
func (r *planRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Plan{}).Count(&count).Error
	return count, err
}
