package repositories

import (
	"metalhub_backend/internal/models"

	"gorm.io/gorm"
)

// AdminLogRepository has no update or delete: the audit trail is append-only.
type AdminLogRepository interface {
	Create(db *gorm.DB, entry *models.AdminLog) error
	List(db *gorm.DB, page, limit int) ([]models.AdminLog, int64, error)
}

type adminLogRepository struct{}

func NewAdminLogRepository() AdminLogRepository {
	return &adminLogRepository{}
}

func (r *adminLogRepository) Create(db *gorm.DB, entry *models.AdminLog) error {
	return db.Create(entry).Error
}

func (r *adminLogRepository) List(db *gorm.DB, page, limit int) ([]models.AdminLog, int64, error) {
	var total int64
	if err := db.Model(&models.AdminLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var entries []models.AdminLog
	err := db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&entries).Error
	return entries, total, err
}
