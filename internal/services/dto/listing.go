package dto

import (
	"metalhub_backend/internal/models"
)

type Location struct {
	City    string `json:"city" validate:"max=80"`
	State   string `json:"state" validate:"max=80"`
	Country string `json:"country" validate:"required,max=80"`
}

type CreateListingRequest struct {
	Title         string             `json:"title" validate:"required,max=200"`
	Description   string             `json:"description" validate:"required"`
	MetalType     models.MetalType   `json:"metalType" validate:"required,is-metal-type"`
	ListingRole   models.ListingRole `json:"listingRole" validate:"required,is-listing-role"`
	ListingType   string             `json:"listingType" validate:"max=40"`
	PremiumStatus string             `json:"premiumStatus" validate:"max=40"`
	Grade         string             `json:"grade" validate:"max=80"`
	Price         float64            `json:"price" validate:"gte=0"`
	Quantity      float64            `json:"quantity" validate:"gte=0"`
	Unit          string             `json:"unit" validate:"max=20"`
	IsNegotiable  *bool              `json:"isNegotiable"`
	Location      Location           `json:"location" validate:"required"`
	Industries    []string           `json:"industries" validate:"omitempty,dive,max=60"`
	Capabilities  []string           `json:"capabilities" validate:"omitempty,dive,max=60"`
	Metals        []string           `json:"metals" validate:"omitempty,dive,max=60"`
	ImageURLs     []string           `json:"imageUrls" validate:"omitempty,dive,url"`
}

// UpdateListingRequest fields left nil are not changed. ImageURLs, when
// present, replaces the listing's images.
type UpdateListingRequest struct {
	Title         *string             `json:"title" validate:"omitempty,max=200"`
	Description   *string             `json:"description"`
	MetalType     *models.MetalType   `json:"metalType" validate:"omitempty,is-metal-type"`
	ListingRole   *models.ListingRole `json:"listingRole" validate:"omitempty,is-listing-role"`
	ListingType   *string             `json:"listingType" validate:"omitempty,max=40"`
	PremiumStatus *string             `json:"premiumStatus" validate:"omitempty,max=40"`
	Grade         *string             `json:"grade" validate:"omitempty,max=80"`
	Price         *float64            `json:"price" validate:"omitempty,gte=0"`
	Quantity      *float64            `json:"quantity" validate:"omitempty,gte=0"`
	Unit          *string             `json:"unit" validate:"omitempty,max=20"`
	IsNegotiable  *bool               `json:"isNegotiable"`
	Location      *Location           `json:"location"`
	Industries    []string            `json:"industries" validate:"omitempty,dive,max=60"`
	Capabilities  []string            `json:"capabilities" validate:"omitempty,dive,max=60"`
	Metals        []string            `json:"metals" validate:"omitempty,dive,max=60"`
	ImageURLs     []string            `json:"imageUrls" validate:"omitempty,dive,url"`
}

// ListingQuery is bound from the query string of GET /listings.
type ListingQuery struct {
	Type        string           `form:"type" validate:"omitempty,oneof=buyers suppliers"`
	Country     []string         `form:"country"`
	Industry    []string         `form:"industry"`
	Capability  []string         `form:"capability"`
	Metal       []string         `form:"metal"`
	Premium     string           `form:"premium"`
	ListingType string           `form:"listingType"`
	DateRange   int              `form:"dateRange" validate:"omitempty,gte=0"`
	Search      string           `form:"search" validate:"max=200"`
	MetalType   models.MetalType `form:"metalType" validate:"omitempty,is-metal-type"`
	MinPrice    *float64         `form:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice    *float64         `form:"maxPrice" validate:"omitempty,gte=0"`
	Location    string           `form:"location" validate:"max=120"`
	SortBy      string           `form:"sortBy" validate:"is-listing-sort"`
	Page        int              `form:"page" validate:"omitempty,gte=1"`
	Limit       int              `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

type ListingCounts struct {
	Offers int64 `json:"offers"`
	Chats  int64 `json:"chats"`
}

// ListingResponse is a listing with its seller summary and activity counts.
type ListingResponse struct {
	models.Listing
	Seller *SellerSummary `json:"seller,omitempty"`
	Count  ListingCounts  `json:"_count"`
}

type ListingPage struct {
	Listings   []ListingResponse `json:"listings"`
	Pagination Pagination        `json:"pagination"`
}

type RejectListingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type FeatureListingRequest struct {
	Days int `json:"days" validate:"omitempty,gte=1,lte=365"`
}
