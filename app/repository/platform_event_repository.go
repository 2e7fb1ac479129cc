package repository

import (
	"time"

	"github.com/StoreKeel/StoreKeel/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// platformEventRepository implements the PlatformEventRepository interface
type platformEventRepository struct {
	db *gorm.DB
}

// NewPlatformEventRepository creates a new platform event repository instance
func NewPlatformEventRepository(db *gorm.DB) PlatformEventRepository {
	return &platformEventRepository{db: db}
}

// CreateIfNotExists inserts the event with ON CONFLICT DO NOTHING on the
// (topic, event_id) unique key, then reads back the stored row.
func (r *platformEventRepository) CreateIfNotExists(event *models.PlatformEvent) (bool, *models.PlatformEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "topic"},
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PlatformEvent
	if err := r.db.Where("topic = ? AND event_id = ?", event.Topic, event.EventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkProcessed stamps the event with the processing outcome
func (r *platformEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PlatformEvent{}).Where("id = ?", id).Updates(updates).Error
}

// ListRecent returns the newest events first
func (r *platformEventRepository) ListRecent(limit int) ([]models.PlatformEvent, error) {
	var events []models.PlatformEvent
	err := r.db.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
