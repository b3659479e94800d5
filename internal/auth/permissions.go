package auth

import (
	"errors"

	"metalhub_backend/internal/models"
)

const (
	PermListingsRead     = "listings:read"
	PermListingsWrite    = "listings:write:self"
	PermOffersCreate     = "offers:create"
	PermOffersDecide     = "offers:decide:self"
	PermChatUse          = "chat:use"
	PermMembershipBuy    = "membership:buy"
	PermListingsModerate = "listings:moderate"
	PermUsersModerate    = "users:moderate"
	PermAuditRead        = "audit:read"
)

// Permissions is the marketplace RBAC table keyed by user role.
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		PermListingsRead,
		PermListingsModerate,
		PermUsersModerate,
		PermAuditRead,
		PermChatUse,
	},
	models.UserRoleSeller: {
		PermListingsRead,
		PermListingsWrite,
		PermOffersCreate,
		PermOffersDecide,
		PermChatUse,
		PermMembershipBuy,
	},
	models.UserRoleBuyer: {
		PermListingsRead,
		PermListingsWrite,
		PermOffersCreate,
		PermOffersDecide,
		PermChatUse,
		PermMembershipBuy,
	},
}

func HasPermission(role models.UserRole, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func CanPerformAction(claims *Claims, permission string) bool {
	return HasPermission(models.UserRole(claims.Role), permission)
}

func IsAdmin(claims *Claims) bool {
	return models.UserRole(claims.Role) == models.UserRoleAdmin
}

func ValidateRole(role string) error {
	switch models.UserRole(role) {
	case models.UserRoleAdmin, models.UserRoleBuyer, models.UserRoleSeller:
		return nil
	default:
		return errors.New("invalid role")
	}
}
