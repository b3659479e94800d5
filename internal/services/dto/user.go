package dto

import (
	"metalhub_backend/internal/models"
)

type MeResponse struct {
	UserDTO
	Profile    *models.Profile    `json:"profile"`
	Membership *models.Membership `json:"membership"`
}

// UpdateProfileRequest fields left nil are not changed.
type UpdateProfileRequest struct {
	FullName    *string `json:"fullName" validate:"omitempty,max=120"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=160"`
	LogoURL     *string `json:"logoUrl" validate:"omitempty,url"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	Country     *string `json:"country" validate:"omitempty,max=80"`
	City        *string `json:"city" validate:"omitempty,max=80"`
}

type SellerSummary struct {
	ID          string  `json:"id"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	FullName    string  `json:"fullName,omitempty"`
	CompanyName string  `json:"companyName,omitempty"`
	LogoURL     string  `json:"logoUrl,omitempty"`
}

func NewSellerSummary(u *models.User) *SellerSummary {
	if u == nil {
		return nil
	}
	s := &SellerSummary{ID: u.ID, Email: u.Email, Phone: u.Phone}
	if u.Profile != nil {
		s.FullName = u.Profile.FullName
		s.CompanyName = u.Profile.CompanyName
		s.LogoURL = u.Profile.LogoURL
	}
	return s
}
