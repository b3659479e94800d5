package repositories

import (
	"metalhub_backend/internal/models"

	"gorm.io/gorm"
)

type LoginActivityRepository interface {
	Create(db *gorm.DB, activity *models.LoginActivity) error
}

type loginActivityRepository struct{}

func NewLoginActivityRepository() LoginActivityRepository {
	return &loginActivityRepository{}
}

func (r *loginActivityRepository) Create(db *gorm.DB, activity *models.LoginActivity) error {
	return db.Create(activity).Error
}
