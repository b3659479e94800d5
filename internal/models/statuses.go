package models

type UserStatus string
type UserRole string
type MembershipPlan string
type MembershipStatus string
type ListingStatus string
type ListingRole string
type MetalType string
type OfferStatus string
type PaymentStatus string
type AdminAction string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusBanned    UserStatus = "BANNED"

	UserRoleBuyer  UserRole = "BUYER"
	UserRoleSeller UserRole = "SELLER"
	UserRoleAdmin  UserRole = "ADMIN"

	PlanFree   MembershipPlan = "FREE"
	PlanSilver MembershipPlan = "SILVER"
	PlanGold   MembershipPlan = "GOLD"

	MembershipStatusActive    MembershipStatus = "ACTIVE"
	MembershipStatusExpired   MembershipStatus = "EXPIRED"
	MembershipStatusCancelled MembershipStatus = "CANCELLED"

	ListingStatusPending  ListingStatus = "PENDING"
	ListingStatusApproved ListingStatus = "APPROVED"
	ListingStatusRejected ListingStatus = "REJECTED"

	ListingRoleBuyer    ListingRole = "BUYER"
	ListingRoleSupplier ListingRole = "SUPPLIER"

	MetalSteel          MetalType = "STEEL"
	MetalStainlessSteel MetalType = "STAINLESS_STEEL"
	MetalIron           MetalType = "IRON"
	MetalAluminium      MetalType = "ALUMINIUM"
	MetalCopper         MetalType = "COPPER"
	MetalBrass          MetalType = "BRASS"
	MetalZinc           MetalType = "ZINC"
	MetalNickel         MetalType = "NICKEL"
	MetalOther          MetalType = "OTHER"

	OfferStatusPending  OfferStatus = "PENDING"
	OfferStatusAccepted OfferStatus = "ACCEPTED"
	OfferStatusRejected OfferStatus = "REJECTED"

	PaymentStatusCreated PaymentStatus = "CREATED"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"

	ActionBanUser        AdminAction = "BAN_USER"
	ActionSuspendUser    AdminAction = "SUSPEND_USER"
	ActionReinstateUser  AdminAction = "REINSTATE_USER"
	ActionApproveListing AdminAction = "APPROVE_LISTING"
	ActionRejectListing  AdminAction = "REJECT_LISTING"
	ActionFeatureListing AdminAction = "FEATURE_LISTING"
)

func (p MembershipPlan) IsValid() bool {
	switch p {
	case PlanFree, PlanSilver, PlanGold:
		return true
	}
	return false
}

func (m MetalType) IsValid() bool {
	switch m {
	case MetalSteel, MetalStainlessSteel, MetalIron, MetalAluminium, MetalCopper,
		MetalBrass, MetalZinc, MetalNickel, MetalOther:
		return true
	}
	return false
}
