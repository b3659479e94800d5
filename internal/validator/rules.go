package validator

import (
	"log"
	"regexp"

	"metalhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// admins are seeded, never self-registered
	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-membership-plan", validateMembershipPlan)
	mustRegister("is-listing-role", validateListingRole)
	mustRegister("is-metal-type", validateMetalType)
	mustRegister("is-listing-sort", validateListingSort)
	mustRegister("phone", validatePhone)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.UserRole(value) {
	case models.UserRoleBuyer, models.UserRoleSeller:
		return true
	default:
		return false
	}
}

func validateMembershipPlan(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.MembershipPlan(value).IsValid()
}

func validateListingRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ListingRole(value) {
	case models.ListingRoleBuyer, models.ListingRoleSupplier:
		return true
	default:
		return false
	}
}

func validateMetalType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.MetalType(value).IsValid()
}

func validateListingSort(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "newest", "price-low", "price-high":
		return true
	default:
		return false
	}
}

func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return phonePattern.MatchString(value)
}
