package repositories

import (
	"errors"

	"metalhub_backend/internal/models"

	"gorm.io/gorm"
)

var ErrOfferNotFound = errors.New("offer not found")

type OfferRepository interface {
	Create(db *gorm.DB, offer *models.Offer) error
	FindByID(db *gorm.DB, id string) (*models.Offer, error)
	// AcceptPending flips a PENDING offer to ACCEPTED. 0 rows means the offer
	// was no longer pending.
	AcceptPending(db *gorm.DB, id string) (int64, error)
	RejectPending(db *gorm.DB, id string) (int64, error)
	HasAccepted(db *gorm.DB, listingID string) (bool, error)
	// RejectPendingSiblings rejects every other PENDING offer on the listing.
	RejectPendingSiblings(db *gorm.DB, listingID, acceptedID string) (int64, error)
	FindByListing(db *gorm.DB, listingID string) ([]models.Offer, error)
	FindByBuyer(db *gorm.DB, buyerID string) ([]models.Offer, error)
	CountByListings(db *gorm.DB, listingIDs []string) (map[string]int64, error)
}

type offerRepository struct{}

func NewOfferRepository() OfferRepository {
	return &offerRepository{}
}

func (r *offerRepository) Create(db *gorm.DB, offer *models.Offer) error {
	return db.Omit("Listing").Create(offer).Error
}

func (r *offerRepository) FindByID(db *gorm.DB, id string) (*models.Offer, error) {
	var offer models.Offer
	if err := db.Preload("Listing").Where("id = ?", id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) AcceptPending(db *gorm.DB, id string) (int64, error) {
	result := db.Model(&models.Offer{}).
		Where("id = ? AND status = ?", id, models.OfferStatusPending).
		Update("status", models.OfferStatusAccepted)
	return result.RowsAffected, result.Error
}

func (r *offerRepository) RejectPending(db *gorm.DB, id string) (int64, error) {
	result := db.Model(&models.Offer{}).
		Where("id = ? AND status = ?", id, models.OfferStatusPending).
		Update("status", models.OfferStatusRejected)
	return result.RowsAffected, result.Error
}

func (r *offerRepository) HasAccepted(db *gorm.DB, listingID string) (bool, error) {
	var total int64
	err := db.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", listingID, models.OfferStatusAccepted).
		Count(&total).Error
	return total > 0, err
}

func (r *offerRepository) RejectPendingSiblings(db *gorm.DB, listingID, acceptedID string) (int64, error) {
	result := db.Model(&models.Offer{}).
		Where("listing_id = ? AND id <> ? AND status = ?", listingID, acceptedID, models.OfferStatusPending).
		Update("status", models.OfferStatusRejected)
	return result.RowsAffected, result.Error
}

func (r *offerRepository) FindByListing(db *gorm.DB, listingID string) ([]models.Offer, error) {
	var offers []models.Offer
	err := db.Where("listing_id = ?", listingID).Order("created_at DESC").Find(&offers).Error
	return offers, err
}

func (r *offerRepository) FindByBuyer(db *gorm.DB, buyerID string) ([]models.Offer, error) {
	var offers []models.Offer
	err := db.Preload("Listing").Preload("Listing.Images", imagesByUpload).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

type listingCount struct {
	ListingID string
	Total     int64
}

func (r *offerRepository) CountByListings(db *gorm.DB, listingIDs []string) (map[string]int64, error) {
	return countGroupedByListing(db.Model(&models.Offer{}), listingIDs)
}

func countGroupedByListing(q *gorm.DB, listingIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(listingIDs))
	if len(listingIDs) == 0 {
		return counts, nil
	}
	var rows []listingCount
	err := q.Select("listing_id, COUNT(*) AS total").
		Where("listing_id IN ?", listingIDs).
		Group("listing_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ListingID] = row.Total
	}
	return counts, nil
}
