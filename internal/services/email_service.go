package services

import (
	"context"
	"fmt"

	"metalhub_backend/internal/email"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/models"
)

// Notifier delivers out-of-band notices to users. Failures are logged, never returned.
type Notifier interface {
	ListingModerated(ctx context.Context, seller *models.User, listing *models.Listing, status models.ListingStatus, reason string)
	OfferAccepted(ctx context.Context, buyer *models.User, listing *models.Listing, offer *models.Offer)
}

// EmailService sends notices through an email.Provider.
type EmailService struct {
	provider email.Provider
}

func NewEmailService(provider email.Provider) *EmailService {
	return &EmailService{provider: provider}
}

func (s *EmailService) ListingModerated(ctx context.Context, seller *models.User, listing *models.Listing, status models.ListingStatus, reason string) {
	if seller == nil || seller.Email == nil {
		return
	}

	decision := "approved"
	if status == models.ListingStatusRejected {
		decision = "rejected"
	}

	s.send(ctx, *seller.Email, fmt.Sprintf("Your listing was %s", decision), email.TemplateListingModerated, email.TemplateData{
		"Name":     displayName(seller),
		"Title":    listing.Title,
		"Decision": decision,
		"Reason":   reason,
	})
}

func (s *EmailService) OfferAccepted(ctx context.Context, buyer *models.User, listing *models.Listing, offer *models.Offer) {
	if buyer == nil || buyer.Email == nil {
		return
	}

	s.send(ctx, *buyer.Email, "Your offer was accepted", email.TemplateOfferAccepted, email.TemplateData{
		"Name":  displayName(buyer),
		"Title": listing.Title,
		"Price": fmt.Sprintf("%.2f", offer.OfferPrice),
	})
}

func (s *EmailService) send(ctx context.Context, to, subject, tpl string, data email.TemplateData) {
	// Detached from the request so a finished response does not cancel delivery.
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.provider.SendTemplate(ctx, []string{to}, subject, tpl, data); err != nil {
			logger.CtxWithError(ctx, "failed to send email", err, "template", tpl)
		}
	}()
}

func displayName(u *models.User) string {
	if u.Profile != nil && u.Profile.FullName != "" {
		return u.Profile.FullName
	}
	if u.Email != nil {
		return *u.Email
	}
	return u.PhoneValue()
}

type noopNotifier struct{}

func (noopNotifier) ListingModerated(context.Context, *models.User, *models.Listing, models.ListingStatus, string) {
}

func (noopNotifier) OfferAccepted(context.Context, *models.User, *models.Listing, *models.Offer) {}
