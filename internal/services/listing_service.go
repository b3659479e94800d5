package services

import (
	"context"
	"errors"
	"time"

	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	defaultFeatureDays = 7
	defaultPageLimit   = 20
	maxPageLimit       = 100
)

var quotaStatuses = []models.ListingStatus{models.ListingStatusPending, models.ListingStatusApproved}

type ListingService interface {
	Create(ctx context.Context, db *gorm.DB, sellerID string, req *dto.CreateListingRequest) (*dto.ListingResponse, error)
	Update(ctx context.Context, db *gorm.DB, sellerID, listingID string, req *dto.UpdateListingRequest) (*dto.ListingResponse, error)
	Delete(ctx context.Context, db *gorm.DB, sellerID, listingID string) error
	FindOne(ctx context.Context, db *gorm.DB, listingID string) (*dto.ListingResponse, error)
	Search(ctx context.Context, db *gorm.DB, query *dto.ListingQuery) (*dto.ListingPage, error)
	MyListings(ctx context.Context, db *gorm.DB, sellerID string) ([]dto.ListingResponse, error)
	PendingListings(ctx context.Context, db *gorm.DB, page, limit int) (*dto.ListingPage, error)

	// Moderation. Callers authorize the actor and own the transaction.
	Approve(ctx context.Context, db *gorm.DB, listingID string) (*models.Listing, error)
	Reject(ctx context.Context, db *gorm.DB, listingID string) (*models.Listing, error)
	Feature(ctx context.Context, db *gorm.DB, listingID string, days int) (*models.Listing, error)
}

type ListingServiceImpl struct {
	listingRepo       repositories.ListingRepository
	offerRepo         repositories.OfferRepository
	chatRepo          repositories.ChatRepository
	membershipService MembershipService
	now               func() time.Time
}

func NewListingService(
	listingRepo repositories.ListingRepository,
	offerRepo repositories.OfferRepository,
	chatRepo repositories.ChatRepository,
	membershipService MembershipService,
) ListingService {
	return &ListingServiceImpl{
		listingRepo:       listingRepo,
		offerRepo:         offerRepo,
		chatRepo:          chatRepo,
		membershipService: membershipService,
		now:               time.Now,
	}
}

// ==========================
// Seller operations
// ==========================

func (s *ListingServiceImpl) Create(ctx context.Context, db *gorm.DB, sellerID string, req *dto.CreateListingRequest) (*dto.ListingResponse, error) {
	listing := &models.Listing{
		SellerID:      sellerID,
		Status:        models.ListingStatusPending,
		ListingRole:   req.ListingRole,
		ListingType:   req.ListingType,
		PremiumStatus: req.PremiumStatus,
		MetalType:     req.MetalType,
		Grade:         req.Grade,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Country:       req.Location.Country,
		State:         req.Location.State,
		City:          req.Location.City,
		Industries:    tagArray(req.Industries),
		Capabilities:  tagArray(req.Capabilities),
		Metals:        tagArray(req.Metals),
	}
	if listing.Unit == "" {
		listing.Unit = "MT"
	}
	if req.IsNegotiable != nil {
		listing.IsNegotiable = *req.IsNegotiable
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership, err := s.membershipService.GetCurrentMembership(ctx, tx, sellerID)
		if err != nil {
			return err
		}
		limits := LimitsFor(membership.Plan)

		if limits.MaxListings != dto.Unlimited {
			count, err := s.listingRepo.CountBySellerAndStatuses(tx, sellerID, quotaStatuses)
			if err != nil {
				return err
			}
			if count >= int64(limits.MaxListings) {
				return apperrors.ErrFreePlanListingLimit
			}
		}
		if !dto.Allows(limits.MaxImagesPerListing, len(req.ImageURLs)) {
			return imageLimitError(limits)
		}

		if err := s.listingRepo.Create(tx, listing); err != nil {
			return err
		}
		return s.listingRepo.ReplaceImages(tx, listing.ID, req.ImageURLs)
	})
	if err != nil {
		return nil, handleListingError(err)
	}

	metrics.ListingsCreated.Inc()
	return s.FindOne(ctx, db, listing.ID)
}

func (s *ListingServiceImpl) Update(ctx context.Context, db *gorm.DB, sellerID, listingID string, req *dto.UpdateListingRequest) (*dto.ListingResponse, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		listing, err := s.listingRepo.LockByID(tx, listingID)
		if err != nil {
			return err
		}
		if listing.SellerID != sellerID {
			return apperrors.ErrNotListingOwner
		}

		if req.ImageURLs != nil {
			membership, err := s.membershipService.GetCurrentMembership(ctx, tx, sellerID)
			if err != nil {
				return err
			}
			limits := LimitsFor(membership.Plan)
			if !dto.Allows(limits.MaxImagesPerListing, len(req.ImageURLs)) {
				return imageLimitError(limits)
			}
		}

		applyListingUpdate(listing, req)
		// Approved listings go back to moderation after any edit.
		if listing.Status == models.ListingStatusApproved {
			listing.Status = models.ListingStatusPending
		}

		if err := s.listingRepo.Update(tx, listing); err != nil {
			return err
		}
		if req.ImageURLs != nil {
			return s.listingRepo.ReplaceImages(tx, listing.ID, req.ImageURLs)
		}
		return nil
	})
	if err != nil {
		return nil, handleListingError(err)
	}

	return s.FindOne(ctx, db, listingID)
}

func (s *ListingServiceImpl) Delete(ctx context.Context, db *gorm.DB, sellerID, listingID string) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	listing, err := s.listingRepo.LockByID(tx, listingID)
	if err != nil {
		return handleListingError(err)
	}
	if listing.SellerID != sellerID {
		return apperrors.ErrNotListingOwner
	}
	if err := s.listingRepo.Delete(tx, listingID); err != nil {
		return handleListingError(err)
	}
	return tx.Commit().Error
}

func (s *ListingServiceImpl) MyListings(ctx context.Context, db *gorm.DB, sellerID string) ([]dto.ListingResponse, error) {
	db = db.WithContext(ctx)
	listings, err := s.listingRepo.FindBySeller(db, sellerID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return s.buildListingResponses(db, listings, true)
}

// ==========================
// Public reads
// ==========================

func (s *ListingServiceImpl) FindOne(ctx context.Context, db *gorm.DB, listingID string) (*dto.ListingResponse, error) {
	db = db.WithContext(ctx)
	listing, err := s.listingRepo.FindDetailed(db, listingID)
	if err != nil {
		return nil, handleListingError(err)
	}

	responses, err := s.buildListingResponses(db, []models.Listing{*listing}, false)
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

func (s *ListingServiceImpl) Search(ctx context.Context, db *gorm.DB, query *dto.ListingQuery) (*dto.ListingPage, error) {
	page, limit := normalizePage(query.Page, query.Limit)

	filter := repositories.ListingFilter{
		Countries:     query.Country,
		Industries:    query.Industry,
		Capabilities:  query.Capability,
		Metals:        query.Metal,
		PremiumStatus: query.Premium,
		ListingType:   query.ListingType,
		Search:        query.Search,
		MetalType:     query.MetalType,
		MinPrice:      query.MinPrice,
		MaxPrice:      query.MaxPrice,
		DateRangeDays: query.DateRange,
		Location:      query.Location,
		SortBy:        query.SortBy,
		Page:          page,
		Limit:         limit,
	}
	switch query.Type {
	case "buyers":
		filter.ListingRole = models.ListingRoleBuyer
	case "suppliers":
		filter.ListingRole = models.ListingRoleSupplier
	}

	db = db.WithContext(ctx)
	listings, total, err := s.listingRepo.Search(db, filter)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses, err := s.buildListingResponses(db, listings, true)
	if err != nil {
		return nil, err
	}
	return &dto.ListingPage{
		Listings:   responses,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

func (s *ListingServiceImpl) PendingListings(ctx context.Context, db *gorm.DB, page, limit int) (*dto.ListingPage, error) {
	page, limit = normalizePage(page, limit)

	db = db.WithContext(ctx)
	listings, total, err := s.listingRepo.FindByStatus(db, models.ListingStatusPending, page, limit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses, err := s.buildListingResponses(db, listings, false)
	if err != nil {
		return nil, err
	}
	return &dto.ListingPage{
		Listings:   responses,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

// ==========================
// Moderation
// ==========================

func (s *ListingServiceImpl) Approve(ctx context.Context, db *gorm.DB, listingID string) (*models.Listing, error) {
	return s.setStatus(ctx, db, listingID, models.ListingStatusApproved)
}

func (s *ListingServiceImpl) Reject(ctx context.Context, db *gorm.DB, listingID string) (*models.Listing, error) {
	return s.setStatus(ctx, db, listingID, models.ListingStatusRejected)
}

func (s *ListingServiceImpl) setStatus(ctx context.Context, db *gorm.DB, listingID string, status models.ListingStatus) (*models.Listing, error) {
	db = db.WithContext(ctx)
	listing, err := s.listingRepo.LockByID(db, listingID)
	if err != nil {
		return nil, handleListingError(err)
	}
	if err := s.listingRepo.UpdateStatus(db, listingID, status); err != nil {
		return nil, handleListingError(err)
	}
	listing.Status = status
	return listing, nil
}

// Feature does not consult plan quotas; it is an admin override.
func (s *ListingServiceImpl) Feature(ctx context.Context, db *gorm.DB, listingID string, days int) (*models.Listing, error) {
	if days <= 0 {
		days = defaultFeatureDays
	}

	db = db.WithContext(ctx)
	listing, err := s.listingRepo.LockByID(db, listingID)
	if err != nil {
		return nil, handleListingError(err)
	}

	until := s.now().AddDate(0, 0, days)
	if err := s.listingRepo.SetFeatured(db, listingID, until); err != nil {
		return nil, handleListingError(err)
	}
	listing.IsFeatured = true
	listing.FeaturedUntil = &until
	return listing, nil
}

// ==========================
// Helpers
// ==========================

// buildListingResponses attaches seller summaries and offer/chat counts.
// With firstImageOnly set, each listing keeps only its earliest image.
func (s *ListingServiceImpl) buildListingResponses(db *gorm.DB, listings []models.Listing, firstImageOnly bool) ([]dto.ListingResponse, error) {
	responses := make([]dto.ListingResponse, 0, len(listings))
	if len(listings) == 0 {
		return responses, nil
	}

	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}

	offerCounts, err := s.offerRepo.CountByListings(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	chatCounts, err := s.chatRepo.CountByListings(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	for _, l := range listings {
		if firstImageOnly && len(l.Images) > 1 {
			l.Images = l.Images[:1]
		}
		responses = append(responses, dto.ListingResponse{
			Listing: l,
			Seller:  dto.NewSellerSummary(l.Seller),
			Count: dto.ListingCounts{
				Offers: offerCounts[l.ID],
				Chats:  chatCounts[l.ID],
			},
		})
	}
	return responses, nil
}

func applyListingUpdate(l *models.Listing, req *dto.UpdateListingRequest) {
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.MetalType != nil {
		l.MetalType = *req.MetalType
	}
	if req.ListingRole != nil {
		l.ListingRole = *req.ListingRole
	}
	if req.ListingType != nil {
		l.ListingType = *req.ListingType
	}
	if req.PremiumStatus != nil {
		l.PremiumStatus = *req.PremiumStatus
	}
	if req.Grade != nil {
		l.Grade = *req.Grade
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if req.Quantity != nil {
		l.Quantity = *req.Quantity
	}
	if req.Unit != nil && *req.Unit != "" {
		l.Unit = *req.Unit
	}
	if req.IsNegotiable != nil {
		l.IsNegotiable = *req.IsNegotiable
	}
	if req.Location != nil {
		l.Country = req.Location.Country
		l.State = req.Location.State
		l.City = req.Location.City
	}
	if req.Industries != nil {
		l.Industries = tagArray(req.Industries)
	}
	if req.Capabilities != nil {
		l.Capabilities = tagArray(req.Capabilities)
	}
	if req.Metals != nil {
		l.Metals = tagArray(req.Metals)
	}
}

func tagArray(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

func imageLimitError(limits dto.PlanLimits) error {
	return apperrors.ErrImageLimitExceeded.WithDetails(map[string]interface{}{
		"plan":                limits.Plan,
		"maxImagesPerListing": limits.MaxImagesPerListing,
	})
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func handleListingError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrListingNotFound) {
		return apperrors.ErrListingNotFound
	}
	return apperrors.DatabaseError(err)
}
