package models

type Offer struct {
	BaseModel
	ListingID  string      `gorm:"type:uuid;not null;index" json:"listingId"`
	BuyerID    string      `gorm:"type:uuid;not null;index" json:"buyerId"`
	OfferPrice float64     `gorm:"not null" json:"offerPrice"`
	Status     OfferStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	Listing *Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}
