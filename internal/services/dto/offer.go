package dto

type CreateOfferRequest struct {
	OfferPrice float64 `json:"offerPrice" validate:"required,gt=0"`
}
