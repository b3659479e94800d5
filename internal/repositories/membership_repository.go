package repositories

import (
	"errors"
	"time"

	"metalhub_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMembershipNotFound = errors.New("membership not found")

type MembershipRepository interface {
	Create(db *gorm.DB, m *models.Membership) error
	// FindActive returns the newest ACTIVE row for the user.
	FindActive(db *gorm.DB, userID string) (*models.Membership, error)
	MarkExpired(db *gorm.DB, id string) error
	// CancelActive moves every ACTIVE row of the user to CANCELLED.
	CancelActive(db *gorm.DB, userID string) (int64, error)
	CountActive(db *gorm.DB) (int64, error)
	ActivePlans(db *gorm.DB, userIDs []string) (map[string]models.MembershipPlan, error)
	// LapsedUserIDs lists users whose ACTIVE row ended before now.
	LapsedUserIDs(db *gorm.DB, now time.Time, limit int) ([]string, error)
}

type membershipRepository struct{}

func NewMembershipRepository() MembershipRepository {
	return &membershipRepository{}
}

func (r *membershipRepository) Create(db *gorm.DB, m *models.Membership) error {
	return db.Create(m).Error
}

func (r *membershipRepository) FindActive(db *gorm.DB, userID string) (*models.Membership, error) {
	var m models.Membership
	err := db.Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) MarkExpired(db *gorm.DB, id string) error {
	result := db.Model(&models.Membership{}).
		Where("id = ? AND status = ?", id, models.MembershipStatusActive).
		Update("status", models.MembershipStatusExpired)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (r *membershipRepository) CancelActive(db *gorm.DB, userID string) (int64, error) {
	result := db.Model(&models.Membership{}).
		Where("user_id = ? AND status = ?", userID, models.MembershipStatusActive).
		Update("status", models.MembershipStatusCancelled)
	return result.RowsAffected, result.Error
}

func (r *membershipRepository) CountActive(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&models.Membership{}).Where("status = ?", models.MembershipStatusActive).Count(&total).Error
	return total, err
}

func (r *membershipRepository) ActivePlans(db *gorm.DB, userIDs []string) (map[string]models.MembershipPlan, error) {
	plans := make(map[string]models.MembershipPlan, len(userIDs))
	if len(userIDs) == 0 {
		return plans, nil
	}

	var rows []models.Membership
	err := db.Select("user_id", "plan").
		Where("user_id IN ? AND status = ?", userIDs, models.MembershipStatusActive).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		plans[m.UserID] = m.Plan
	}
	return plans, nil
}

func (r *membershipRepository) LapsedUserIDs(db *gorm.DB, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := db.Model(&models.Membership{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.MembershipStatusActive, now).
		Order("end_date").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}
