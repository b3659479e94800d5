package models

import "time"

// Chat is unique per (listing, buyer).
type Chat struct {
	BaseModel
	ListingID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_chat_listing_buyer" json:"listingId"`
	BuyerID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_chat_listing_buyer" json:"buyerId"`
	SellerID      string    `gorm:"type:uuid;not null;index" json:"sellerId"`
	LastMessageAt time.Time `gorm:"not null" json:"lastMessageAt"`

	Messages []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Listing  *Listing  `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (c *Chat) HasParticipant(userID string) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the other participant.
func (c *Chat) Counterpart(userID string) string {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

type Message struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    string    `gorm:"type:uuid;not null;index" json:"chatId"`
	SenderID  string    `gorm:"type:uuid;not null" json:"senderId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}
