package models

import (
	"time"

	"gorm.io/datatypes"
)

type Payment struct {
	BaseModel
	UserID           string         `gorm:"type:uuid;not null;index" json:"userId"`
	GatewayOrderID   string         `gorm:"uniqueIndex;not null" json:"gatewayOrderId"`
	GatewayPaymentID *string        `json:"gatewayPaymentId,omitempty"`
	Amount           int64          `gorm:"not null" json:"amount"`
	Currency         string         `gorm:"not null;default:'INR'" json:"currency"`
	Status           PaymentStatus  `gorm:"type:varchar(20);not null;default:'CREATED'" json:"status"`
	Plan             MembershipPlan `gorm:"type:varchar(20);not null" json:"plan"`
}

// PaymentEvent is an append-only record of every verified webhook delivery.
type PaymentEvent struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID *string        `gorm:"type:uuid;index" json:"paymentId,omitempty"`
	EventType string         `gorm:"not null" json:"eventType"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}
