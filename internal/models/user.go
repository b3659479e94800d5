package models

import "time"

type User struct {
	BaseModel
	Email         *string    `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone         *string    `gorm:"uniqueIndex" json:"phone,omitempty"`
	PasswordHash  *string    `json:"-"`
	Role          UserRole   `gorm:"type:varchar(20);not null;default:'BUYER'" json:"role"`
	Status        UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	EmailVerified bool       `gorm:"not null;default:false" json:"emailVerified"`
	PhoneVerified bool       `gorm:"not null;default:false" json:"phoneVerified"`

	// Relations
	Profile     *Profile     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Memberships []Membership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

func (u *User) PhoneValue() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

type Profile struct {
	BaseModel
	UserID      string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
	LogoURL     string `json:"logoUrl"`
	Bio         string `json:"bio"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

type LoginActivity struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string    `gorm:"type:uuid;not null;index" json:"userId"`
	IPAddress         string    `json:"ipAddress"`
	DeviceFingerprint string    `json:"deviceFingerprint"`
	Success           bool      `gorm:"not null" json:"success"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
