package services

import (
	"context"
	"errors"

	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type UserService interface {
	GetMe(ctx context.Context, db *gorm.DB, userID string) (*dto.MeResponse, error)
	UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.Profile, error)
}

type UserServiceImpl struct {
	userRepo          repositories.UserRepository
	profileRepo       repositories.ProfileRepository
	membershipService MembershipService
}

func NewUserService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	membershipService MembershipService,
) UserService {
	return &UserServiceImpl{
		userRepo:          userRepo,
		profileRepo:       profileRepo,
		membershipService: membershipService,
	}
}

func (s *UserServiceImpl) GetMe(ctx context.Context, db *gorm.DB, userID string) (*dto.MeResponse, error) {
	user, err := s.userRepo.FindByID(db.WithContext(ctx), userID)
	if err != nil {
		return nil, handleUserError(err)
	}

	membership, err := s.membershipService.GetCurrentMembership(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	return &dto.MeResponse{
		UserDTO:    dto.NewUserDTO(user),
		Profile:    user.Profile,
		Membership: membership,
	}, nil
}

func (s *UserServiceImpl) UpdateMe(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	db = db.WithContext(ctx)

	profile, err := s.profileRepo.FindByUserID(db, userID)
	switch {
	case errors.Is(err, repositories.ErrProfileNotFound):
		// Users seeded outside registration may lack a profile row.
		profile = &models.Profile{UserID: userID}
		applyProfileUpdate(profile, req)
		if err := s.profileRepo.Create(db, profile); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		return profile, nil
	case err != nil:
		return nil, apperrors.DatabaseError(err)
	}

	applyProfileUpdate(profile, req)
	if err := s.profileRepo.Update(db, profile); err != nil {
		return nil, handleUserError(err)
	}
	return profile, nil
}

func applyProfileUpdate(p *models.Profile, req *dto.UpdateProfileRequest) {
	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.CompanyName != nil {
		p.CompanyName = *req.CompanyName
	}
	if req.LogoURL != nil {
		p.LogoURL = *req.LogoURL
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Country != nil {
		p.Country = *req.Country
	}
	if req.City != nil {
		p.City = *req.City
	}
}

func handleUserError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrUserNotFound) || errors.Is(err, repositories.ErrProfileNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.DatabaseError(err)
}
