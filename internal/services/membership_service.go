package services

import (
	"context"
	"errors"
	"time"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type MembershipService interface {
	// GetCurrentMembership returns the user's ACTIVE membership, replacing a
	// missing or lapsed one with a non-expiring FREE row.
	GetCurrentMembership(ctx context.Context, db *gorm.DB, userID string) (*models.Membership, error)
	// Upgrade cancels every ACTIVE membership of the user and activates plan.
	Upgrade(ctx context.Context, db *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error)
	GetLimits(ctx context.Context, db *gorm.DB, userID string) (*dto.PlanLimits, error)
	// StartMembership opens the first membership of a freshly created user.
	StartMembership(ctx context.Context, db *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error)
}

type MembershipServiceImpl struct {
	membershipRepo repositories.MembershipRepository
	userRepo       repositories.UserRepository
	now            func() time.Time
}

func NewMembershipService(
	membershipRepo repositories.MembershipRepository,
	userRepo repositories.UserRepository,
) MembershipService {
	return &MembershipServiceImpl{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		now:            time.Now,
	}
}

// LimitsFor maps a plan to its quotas. Unknown plans get FREE limits.
func LimitsFor(plan models.MembershipPlan) dto.PlanLimits {
	switch plan {
	case models.PlanSilver:
		return dto.PlanLimits{
			Plan:                models.PlanSilver,
			MaxListings:         dto.Unlimited,
			CanFeature:          true,
			FeaturedCount:       1,
			CanNegotiate:        true,
			MaxImagesPerListing: 5,
		}
	case models.PlanGold:
		return dto.PlanLimits{
			Plan:                models.PlanGold,
			MaxListings:         dto.Unlimited,
			CanFeature:          true,
			FeaturedCount:       dto.Unlimited,
			CanNegotiate:        true,
			MaxImagesPerListing: 10,
		}
	default:
		return dto.PlanLimits{
			Plan:                models.PlanFree,
			MaxListings:         3,
			CanFeature:          false,
			FeaturedCount:       0,
			CanNegotiate:        true,
			MaxImagesPerListing: 3,
		}
	}
}

func (s *MembershipServiceImpl) GetCurrentMembership(ctx context.Context, db *gorm.DB, userID string) (*models.Membership, error) {
	var current *models.Membership

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the user serializes concurrent self-healing lookups.
		if _, err := s.userRepo.LockByID(tx, userID); err != nil {
			return err
		}

		m, err := s.membershipRepo.FindActive(tx, userID)
		switch {
		case err == nil && !m.IsLapsed(s.now()):
			current = m
			return nil
		case err == nil:
			if err := s.membershipRepo.MarkExpired(tx, m.ID); err != nil {
				return err
			}
			logger.CtxInfo(ctx, "membership expired", "membership_id", m.ID, "plan", m.Plan)
		case !errors.Is(err, repositories.ErrMembershipNotFound):
			return err
		}

		current = &models.Membership{
			UserID: userID,
			Plan:   models.PlanFree,
			Status: models.MembershipStatusActive,
		}
		return s.membershipRepo.Create(tx, current)
	})
	if err != nil {
		return nil, handleMembershipError(err)
	}
	return current, nil
}

func (s *MembershipServiceImpl) Upgrade(ctx context.Context, db *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error) {
	if !plan.IsValid() {
		return nil, apperrors.ErrInvalidPlan
	}

	membership := &models.Membership{
		UserID:  userID,
		Plan:    plan,
		Status:  models.MembershipStatusActive,
		EndDate: endDate,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.userRepo.LockByID(tx, userID); err != nil {
			return err
		}
		cancelled, err := s.membershipRepo.CancelActive(tx, userID)
		if err != nil {
			return err
		}
		if cancelled > 0 {
			logger.CtxDebug(ctx, "cancelled active memberships", "count", cancelled)
		}
		return s.membershipRepo.Create(tx, membership)
	})
	if err != nil {
		return nil, handleMembershipError(err)
	}

	logger.CtxInfo(ctx, "membership upgraded", "user_id", userID, "plan", plan)
	return membership, nil
}

func (s *MembershipServiceImpl) GetLimits(ctx context.Context, db *gorm.DB, userID string) (*dto.PlanLimits, error) {
	m, err := s.GetCurrentMembership(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	limits := LimitsFor(m.Plan)
	return &limits, nil
}

func (s *MembershipServiceImpl) StartMembership(ctx context.Context, db *gorm.DB, userID string, plan models.MembershipPlan, endDate *time.Time) (*models.Membership, error) {
	m := &models.Membership{
		UserID:  userID,
		Plan:    plan,
		Status:  models.MembershipStatusActive,
		EndDate: endDate,
	}
	if err := s.membershipRepo.Create(db.WithContext(ctx), m); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return m, nil
}

func handleMembershipError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.DatabaseError(err)
}
