package apperrors

import (
	"net/http"
)

// ErrNotFound wraps a repository miss.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// --- Auth & users ---

var ErrInvalidCredentials = New(CodeInvalidCredentials, "auth", "Invalid credentials", http.StatusUnauthorized)

var ErrAccountInactive = New(CodeUnauthorized, "auth", "Account is suspended or banned", http.StatusUnauthorized)

var ErrTooManyLoginAttempts = New(CodeUnauthorized, "auth", "Too many login attempts. Please try again later.", http.StatusUnauthorized)

var ErrInvalidOTP = New(CodeUnauthorized, "auth", "Invalid or expired OTP", http.StatusUnauthorized)

var ErrInvalidToken = New(CodeInvalidToken, "auth", "Invalid token", http.StatusUnauthorized)

var ErrTokenExpired = New(CodeTokenExpired, "auth", "Token has expired", http.StatusUnauthorized)

var ErrTokenRevoked = New(CodeInvalidToken, "auth", "Token has been revoked", http.StatusUnauthorized)

var ErrEmailAlreadyExists = New(CodeConflict, "user", "Email already registered", http.StatusConflict)

var ErrPhoneAlreadyExists = New(CodeConflict, "user", "Phone already registered", http.StatusConflict)

var ErrIdentityRequired = New(CodeValidationFailed, "user", "Either email or phone is required", http.StatusBadRequest)

var ErrPasswordRequiredForEmail = New(CodeValidationFailed, "user", "Password is required when registering with email", http.StatusBadRequest)

var ErrPhoneNotRegistered = New(CodeInvalidOperation, "auth", "Phone number not registered", http.StatusBadRequest)

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

var ErrInsufficientPermissions = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)

var ErrAdminRequired = New(CodeForbidden, "admin", "Admin access required", http.StatusForbidden)

var ErrCannotModifySelf = New(CodeForbidden, "admin", "Operation on self is not allowed", http.StatusForbidden)

var ErrCannotModifyAdmin = New(CodeForbidden, "admin", "Operation on another admin is not allowed", http.StatusForbidden)

// --- Membership ---

var ErrInvalidPlan = New(CodeValidationFailed, "membership", "Unknown membership plan", http.StatusBadRequest)

var ErrFreePlanListingLimit = New(CodeLimitExceeded, "membership", "Free plan allows maximum 3 listings. Upgrade to create more.", http.StatusForbidden)

var ErrImageLimitExceeded = New(CodeLimitExceeded, "membership", "Too many images for the current plan", http.StatusForbidden)

// --- Listings ---

var ErrListingNotFound = New(CodeNotFound, "listing", "Listing not found", http.StatusNotFound)

var ErrNotListingOwner = New(CodeForbidden, "listing", "You can only modify your own listings", http.StatusForbidden)

// --- Offers ---

var ErrOfferNotFound = New(CodeNotFound, "offer", "Offer not found", http.StatusNotFound)

var ErrListingNotAvailable = New(CodeInvalidStatus, "offer", "Listing is not available for offers", http.StatusBadRequest)

var ErrOfferOnOwnListing = New(CodeInvalidOperation, "offer", "Cannot make offer on your own listing", http.StatusBadRequest)

var ErrListingNotNegotiable = New(CodeInvalidOperation, "offer", "This listing does not accept offers", http.StatusBadRequest)

var ErrOfferAlreadyAccepted = New(CodeInvalidStatus, "offer", "Listing already has an accepted offer", http.StatusBadRequest)

var ErrOfferNotPending = New(CodeInvalidStatus, "offer", "Offer is not pending", http.StatusBadRequest)

var ErrNotOfferListingOwner = New(CodeForbidden, "offer", "Only the listing owner can manage its offers", http.StatusForbidden)

// --- Chat ---

var ErrChatNotFound = New(CodeNotFound, "chat", "Chat not found", http.StatusNotFound)

var ErrChatWithSelf = New(CodeInvalidOperation, "chat", "Cannot chat with yourself", http.StatusBadRequest)

var ErrChatAccessDenied = New(CodeForbidden, "chat", "Access denied", http.StatusForbidden)

// --- Payments ---

var ErrFreePlanPayment = New(CodeInvalidOperation, "payment", "Free plan does not require payment", http.StatusBadRequest)

var ErrPaymentNotFound = New(CodeNotFound, "payment", "Payment not found", http.StatusNotFound)

var ErrInvalidWebhookSignature = New(CodeUnauthorized, "payment", "Invalid webhook signature", http.StatusUnauthorized)

var ErrPaymentGateway = New(CodeExternalServiceError, "payment", "Payment gateway error", http.StatusBadGateway)
