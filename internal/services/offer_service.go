package services

import (
	"context"
	"errors"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type OfferService interface {
	CreateOffer(ctx context.Context, db *gorm.DB, buyerID, listingID string, req *dto.CreateOfferRequest) (*models.Offer, error)
	// Accept marks the offer ACCEPTED and rejects every other pending offer on the listing.
	Accept(ctx context.Context, db *gorm.DB, sellerID, offerID string) (*models.Offer, error)
	Reject(ctx context.Context, db *gorm.DB, sellerID, offerID string) (*models.Offer, error)
	ListForListing(ctx context.Context, db *gorm.DB, sellerID, listingID string) ([]models.Offer, error)
	ListMine(ctx context.Context, db *gorm.DB, buyerID string) ([]models.Offer, error)
}

type OfferServiceImpl struct {
	offerRepo   repositories.OfferRepository
	listingRepo repositories.ListingRepository
	userRepo    repositories.UserRepository
	notifier    Notifier
}

func NewOfferService(
	offerRepo repositories.OfferRepository,
	listingRepo repositories.ListingRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
) OfferService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &OfferServiceImpl{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

func (s *OfferServiceImpl) CreateOffer(ctx context.Context, db *gorm.DB, buyerID, listingID string, req *dto.CreateOfferRequest) (*models.Offer, error) {
	db = db.WithContext(ctx)

	listing, err := s.listingRepo.FindByID(db, listingID)
	if err != nil {
		return nil, handleOfferError(err)
	}
	if listing.Status != models.ListingStatusApproved {
		return nil, apperrors.ErrListingNotAvailable
	}
	if listing.SellerID == buyerID {
		return nil, apperrors.ErrOfferOnOwnListing
	}
	if !listing.IsNegotiable {
		return nil, apperrors.ErrListingNotNegotiable
	}
	taken, err := s.offerRepo.HasAccepted(db, listingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if taken {
		return nil, apperrors.ErrOfferAlreadyAccepted
	}

	offer := &models.Offer{
		ListingID:  listingID,
		BuyerID:    buyerID,
		OfferPrice: req.OfferPrice,
		Status:     models.OfferStatusPending,
	}
	if err := s.offerRepo.Create(db, offer); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	metrics.OffersTotal.WithLabelValues(string(models.OfferStatusPending)).Inc()
	offer.Listing = listing
	return offer, nil
}

func (s *OfferServiceImpl) Accept(ctx context.Context, db *gorm.DB, sellerID, offerID string) (*models.Offer, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	offer, listing, err := s.loadForDecision(tx, sellerID, offerID)
	if err != nil {
		return nil, err
	}

	// The listing row is locked, so no other accept can slip in between.
	taken, err := s.offerRepo.HasAccepted(tx, offer.ListingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if taken {
		return nil, apperrors.ErrOfferAlreadyAccepted
	}

	// Conditional update: a concurrent decision leaves zero rows here.
	accepted, err := s.offerRepo.AcceptPending(tx, offerID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.ErrOfferAlreadyAccepted
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if accepted == 0 {
		return nil, apperrors.ErrOfferNotPending
	}

	rejected, err := s.offerRepo.RejectPendingSiblings(tx, offer.ListingID, offerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.CtxInfo(ctx, "offer accepted", "offer_id", offerID, "listing_id", offer.ListingID, "siblings_rejected", rejected)
	metrics.OffersTotal.WithLabelValues(string(models.OfferStatusAccepted)).Inc()
	if rejected > 0 {
		metrics.OffersTotal.WithLabelValues(string(models.OfferStatusRejected)).Add(float64(rejected))
	}

	offer.Status = models.OfferStatusAccepted
	offer.Listing = listing
	if buyer, err := s.userRepo.FindByID(db.WithContext(ctx), offer.BuyerID); err == nil {
		s.notifier.OfferAccepted(ctx, buyer, listing, offer)
	} else {
		logger.CtxWarn(ctx, "offer buyer lookup failed", "buyer_id", offer.BuyerID, "error", err)
	}
	return offer, nil
}

func (s *OfferServiceImpl) Reject(ctx context.Context, db *gorm.DB, sellerID, offerID string) (*models.Offer, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	offer, listing, err := s.loadForDecision(tx, sellerID, offerID)
	if err != nil {
		return nil, err
	}

	rejected, err := s.offerRepo.RejectPending(tx, offerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if rejected == 0 {
		return nil, apperrors.ErrOfferNotPending
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	metrics.OffersTotal.WithLabelValues(string(models.OfferStatusRejected)).Inc()
	offer.Status = models.OfferStatusRejected
	offer.Listing = listing
	return offer, nil
}

// loadForDecision fetches the offer, locks its listing and checks that the
// caller owns the listing and the offer is still pending.
func (s *OfferServiceImpl) loadForDecision(tx *gorm.DB, sellerID, offerID string) (*models.Offer, *models.Listing, error) {
	offer, err := s.offerRepo.FindByID(tx, offerID)
	if err != nil {
		return nil, nil, handleOfferError(err)
	}

	listing, err := s.listingRepo.LockByID(tx, offer.ListingID)
	if err != nil {
		return nil, nil, handleOfferError(err)
	}
	if listing.SellerID != sellerID {
		return nil, nil, apperrors.ErrNotOfferListingOwner
	}
	if offer.Status != models.OfferStatusPending {
		return nil, nil, apperrors.ErrOfferNotPending
	}
	return offer, listing, nil
}

func (s *OfferServiceImpl) ListForListing(ctx context.Context, db *gorm.DB, sellerID, listingID string) ([]models.Offer, error) {
	db = db.WithContext(ctx)

	listing, err := s.listingRepo.FindByID(db, listingID)
	if err != nil {
		return nil, handleOfferError(err)
	}
	if listing.SellerID != sellerID {
		return nil, apperrors.ErrNotOfferListingOwner
	}

	offers, err := s.offerRepo.FindByListing(db, listingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return offers, nil
}

func (s *OfferServiceImpl) ListMine(ctx context.Context, db *gorm.DB, buyerID string) ([]models.Offer, error) {
	offers, err := s.offerRepo.FindByBuyer(db.WithContext(ctx), buyerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	for i := range offers {
		if l := offers[i].Listing; l != nil && len(l.Images) > 1 {
			l.Images = l.Images[:1]
		}
	}
	return offers, nil
}

func handleOfferError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repositories.ErrOfferNotFound):
		return apperrors.ErrOfferNotFound
	case errors.Is(err, repositories.ErrListingNotFound):
		return apperrors.ErrListingNotFound
	}
	return apperrors.DatabaseError(err)
}
