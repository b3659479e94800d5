package dto

import "metalhub_backend/internal/models"

type CreateOrderRequest struct {
	Plan models.MembershipPlan `json:"plan" validate:"required,is-membership-plan"`
}

type CreateOrderResponse struct {
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaymentID string `json:"paymentId"`
	KeyID     string `json:"keyId,omitempty"`
}
