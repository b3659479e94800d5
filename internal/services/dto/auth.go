package dto

import (
	"time"

	"metalhub_backend/internal/models"
)

// RegisterRequest needs an email or a phone. A password is required with an email.
type RegisterRequest struct {
	Email    string          `json:"email" validate:"omitempty,email"`
	Phone    string          `json:"phone" validate:"omitempty,phone"`
	Password string          `json:"password" validate:"omitempty,min=6"`
	Role     models.UserRole `json:"role" validate:"required,is-user-role"`
	FullName string          `json:"fullName" validate:"required,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type WhatsAppOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ClientInfo is what the transport layer knows about the caller's device.
type ClientInfo struct {
	IPAddress         string
	DeviceFingerprint string
}

type AuthResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserDTO   `json:"user"`
}

type UserDTO struct {
	ID            string            `json:"id"`
	Email         *string           `json:"email"`
	Phone         *string           `json:"phone"`
	Role          models.UserRole   `json:"role"`
	Status        models.UserStatus `json:"status,omitempty"`
	EmailVerified bool              `json:"emailVerified"`
	PhoneVerified bool              `json:"phoneVerified"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
	}
}
