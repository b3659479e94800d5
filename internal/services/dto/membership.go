package dto

import "metalhub_backend/internal/models"

// PlanLimits uses -1 for unlimited.
type PlanLimits struct {
	Plan                models.MembershipPlan `json:"plan"`
	MaxListings         int                   `json:"maxListings"`
	CanFeature          bool                  `json:"canFeature"`
	FeaturedCount       int                   `json:"featuredCount"`
	CanNegotiate        bool                  `json:"canNegotiate"`
	MaxImagesPerListing int                   `json:"maxImagesPerListing"`
}

const Unlimited = -1

// Allows reports whether n items fit under max.
func Allows(max, n int) bool {
	return max == Unlimited || n <= max
}
