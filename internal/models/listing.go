package models

import (
	"time"

	"github.com/lib/pq"
)

type Listing struct {
	BaseModel
	SellerID      string         `gorm:"type:uuid;not null;index" json:"sellerId"`
	Status        ListingStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ListingRole   ListingRole    `gorm:"type:varchar(20);not null" json:"listingRole"`
	ListingType   string         `json:"listingType"`
	PremiumStatus string         `json:"premiumStatus"`
	MetalType     MetalType      `gorm:"type:varchar(30);not null" json:"metalType"`
	Grade         string         `json:"grade"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	Quantity      float64        `gorm:"not null" json:"quantity"`
	Unit          string         `gorm:"not null;default:'MT'" json:"unit"`
	IsNegotiable  bool           `gorm:"not null" json:"isNegotiable"`
	Country       string         `gorm:"index" json:"country"`
	State         string         `json:"state"`
	City          string         `json:"city"`
	Industries    pq.StringArray `gorm:"type:text[]" json:"industries"`
	Capabilities  pq.StringArray `gorm:"type:text[]" json:"capabilities"`
	Metals        pq.StringArray `gorm:"type:text[]" json:"metals"`
	IsFeatured    bool           `gorm:"not null;default:false" json:"isFeatured"`
	FeaturedUntil *time.Time     `json:"featuredUntil"`

	// Relations
	Images []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Offers []Offer        `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	Chats  []Chat         `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	Seller *User          `gorm:"foreignKey:SellerID" json:"-"`
}

type ListingImage struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID  string    `gorm:"type:uuid;not null;index" json:"listingId"`
	ImageURL   string    `gorm:"not null" json:"imageUrl"`
	MLVerified bool      `gorm:"column:ml_verified;not null;default:false" json:"mlVerified"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}
