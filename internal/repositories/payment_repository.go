package repositories

import (
	"errors"

	"metalhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepository interface {
	Create(db *gorm.DB, payment *models.Payment) error
	// LockByOrderID row-locks the payment so concurrent webhook deliveries serialize.
	LockByOrderID(db *gorm.DB, orderID string) (*models.Payment, error)
	MarkSuccess(db *gorm.DB, id, gatewayPaymentID string) error
	MarkFailed(db *gorm.DB, id string) error
	FindByUser(db *gorm.DB, userID string) ([]models.Payment, error)
	Recent(db *gorm.DB, limit int) ([]models.Payment, error)
	CreateEvent(db *gorm.DB, event *models.PaymentEvent) error
}

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Create(db *gorm.DB, payment *models.Payment) error {
	return db.Create(payment).Error
}

func (r *paymentRepository) LockByOrderID(db *gorm.DB, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) MarkSuccess(db *gorm.DB, id, gatewayPaymentID string) error {
	return r.setStatus(db, id, map[string]interface{}{
		"status":             models.PaymentStatusSuccess,
		"gateway_payment_id": gatewayPaymentID,
	})
}

func (r *paymentRepository) MarkFailed(db *gorm.DB, id string) error {
	return r.setStatus(db, id, map[string]interface{}{"status": models.PaymentStatusFailed})
}

func (r *paymentRepository) setStatus(db *gorm.DB, id string, fields map[string]interface{}) error {
	result := db.Model(&models.Payment{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *paymentRepository) FindByUser(db *gorm.DB, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Recent(db *gorm.DB, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := db.Order("created_at DESC").Limit(limit).Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) CreateEvent(db *gorm.DB, event *models.PaymentEvent) error {
	return db.Create(event).Error
}
