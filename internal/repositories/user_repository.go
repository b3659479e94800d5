package repositories

import (
	"errors"

	"metalhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByPhone(db *gorm.DB, phone string) (*models.User, error)
	// LockByID takes a row lock on the user for the rest of the transaction.
	LockByID(db *gorm.DB, id string) (*models.User, error)
	UpdateStatus(db *gorm.DB, id string, status models.UserStatus) error
	MarkPhoneVerified(db *gorm.DB, id string) error
	List(db *gorm.DB, page, limit int) ([]models.User, int64, error)
	Count(db *gorm.DB) (int64, error)
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *models.User) error {
	return db.Omit(clause.Associations).Create(user).Error
}

func (r *userRepository) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db.Preload("Profile"), "id = ?", id)
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	return r.findOne(db, "email = ?", email)
}

func (r *userRepository) FindByPhone(db *gorm.DB, phone string) (*models.User, error) {
	return r.findOne(db, "phone = ?", phone)
}

func (r *userRepository) LockByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *userRepository) findOne(db *gorm.DB, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateStatus(db *gorm.DB, id string, status models.UserStatus) error {
	result := db.Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) MarkPhoneVerified(db *gorm.DB, id string) error {
	result := db.Model(&models.User{}).Where("id = ?", id).Update("phone_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) List(db *gorm.DB, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := db.Preload("Profile").
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&users).Error
	return users, total, err
}

func (r *userRepository) Count(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&models.User{}).Count(&total).Error
	return total, err
}
