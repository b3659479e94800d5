package repositories

import (
	"errors"
	"time"

	"metalhub_backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrListingNotFound = errors.New("listing not found")
)

const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// ListingFilter holds the optional search filters. Filters combine with AND;
// values inside a multi-valued filter combine with OR.
type ListingFilter struct {
	ListingRole   models.ListingRole
	Countries     []string
	Industries    []string
	Capabilities  []string
	Metals        []string
	PremiumStatus string
	ListingType   string
	Search        string
	MetalType     models.MetalType
	MinPrice      *float64
	MaxPrice      *float64
	DateRangeDays int
	Location      string
	SortBy        string
	Page          int
	Limit         int
}

type ListingRepository interface {
	Create(db *gorm.DB, listing *models.Listing) error
	FindByID(db *gorm.DB, id string) (*models.Listing, error)
	// FindDetailed preloads images, seller and the seller's profile.
	FindDetailed(db *gorm.DB, id string) (*models.Listing, error)
	LockByID(db *gorm.DB, id string) (*models.Listing, error)
	Update(db *gorm.DB, listing *models.Listing) error
	ReplaceImages(db *gorm.DB, listingID string, urls []string) error
	Delete(db *gorm.DB, id string) error
	UpdateStatus(db *gorm.DB, id string, status models.ListingStatus) error
	SetFeatured(db *gorm.DB, id string, until time.Time) error
	ClearExpiredFeatured(db *gorm.DB, now time.Time) (int64, error)

	CountBySellerAndStatuses(db *gorm.DB, sellerID string, statuses []models.ListingStatus) (int64, error)
	CountBySellers(db *gorm.DB, sellerIDs []string) (map[string]int64, error)
	Count(db *gorm.DB) (int64, error)
	CountByStatus(db *gorm.DB, status models.ListingStatus) (int64, error)

	FindBySeller(db *gorm.DB, sellerID string) ([]models.Listing, error)
	FindByStatus(db *gorm.DB, status models.ListingStatus, page, limit int) ([]models.Listing, int64, error)
	Search(db *gorm.DB, filter ListingFilter) ([]models.Listing, int64, error)
}

type listingRepository struct{}

func NewListingRepository() ListingRepository {
	return &listingRepository{}
}

func imagesByUpload(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at ASC")
}

func (r *listingRepository) Create(db *gorm.DB, listing *models.Listing) error {
	return db.Create(listing).Error
}

func (r *listingRepository) FindByID(db *gorm.DB, id string) (*models.Listing, error) {
	return r.findOne(db, id)
}

func (r *listingRepository) FindDetailed(db *gorm.DB, id string) (*models.Listing, error) {
	return r.findOne(db.Preload("Images", imagesByUpload).Preload("Seller.Profile"), id)
}

func (r *listingRepository) LockByID(db *gorm.DB, id string) (*models.Listing, error) {
	return r.findOne(db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *listingRepository) findOne(db *gorm.DB, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := db.Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) Update(db *gorm.DB, listing *models.Listing) error {
	result := db.Model(listing).Omit(clause.Associations).Select(
		"status", "listing_role", "listing_type", "premium_status", "metal_type", "grade",
		"title", "description", "price", "quantity", "unit", "is_negotiable",
		"country", "state", "city", "industries", "capabilities", "metals",
	).Updates(listing)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) ReplaceImages(db *gorm.DB, listingID string, urls []string) error {
	if err := db.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error; err != nil {
		return err
	}
	if len(urls) == 0 {
		return nil
	}
	images := imageRows(listingID, urls, time.Now().UTC().Truncate(time.Microsecond))
	return db.Create(&images).Error
}

// imageRows stamps each image a microsecond apart so uploaded_at ordering
// reproduces the submitted order within a single batch insert.
func imageRows(listingID string, urls []string, base time.Time) []models.ListingImage {
	images := make([]models.ListingImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, models.ListingImage{
			ListingID:  listingID,
			ImageURL:   u,
			UploadedAt: base.Add(time.Duration(i) * time.Microsecond),
		})
	}
	return images
}

func (r *listingRepository) Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) UpdateStatus(db *gorm.DB, id string, status models.ListingStatus) error {
	result := db.Model(&models.Listing{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) SetFeatured(db *gorm.DB, id string, until time.Time) error {
	result := db.Model(&models.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_featured":    true,
		"featured_until": until,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *listingRepository) ClearExpiredFeatured(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Model(&models.Listing{}).
		Where("is_featured = ? AND featured_until < ?", true, now).
		Update("is_featured", false)
	return result.RowsAffected, result.Error
}

func (r *listingRepository) CountBySellerAndStatuses(db *gorm.DB, sellerID string, statuses []models.ListingStatus) (int64, error) {
	var total int64
	err := db.Model(&models.Listing{}).
		Where("seller_id = ? AND status IN ?", sellerID, statuses).
		Count(&total).Error
	return total, err
}

type sellerCount struct {
	SellerID string
	Total    int64
}

func (r *listingRepository) CountBySellers(db *gorm.DB, sellerIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(sellerIDs))
	if len(sellerIDs) == 0 {
		return counts, nil
	}
	var rows []sellerCount
	err := db.Model(&models.Listing{}).
		Select("seller_id, COUNT(*) AS total").
		Where("seller_id IN ?", sellerIDs).
		Group("seller_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SellerID] = row.Total
	}
	return counts, nil
}

func (r *listingRepository) Count(db *gorm.DB) (int64, error) {
	var total int64
	err := db.Model(&models.Listing{}).Count(&total).Error
	return total, err
}

func (r *listingRepository) CountByStatus(db *gorm.DB, status models.ListingStatus) (int64, error) {
	var total int64
	err := db.Model(&models.Listing{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

func (r *listingRepository) FindBySeller(db *gorm.DB, sellerID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := db.Preload("Images", imagesByUpload).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (r *listingRepository) FindByStatus(db *gorm.DB, status models.ListingStatus, page, limit int) ([]models.Listing, int64, error) {
	var total int64
	if err := db.Model(&models.Listing{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []models.Listing
	err := db.Preload("Images", imagesByUpload).Preload("Seller.Profile").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&listings).Error
	return listings, total, err
}

func (r *listingRepository) Search(db *gorm.DB, filter ListingFilter) ([]models.Listing, int64, error) {
	var total int64
	if err := applyListingFilter(db.Model(&models.Listing{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []models.Listing
	err := applyListingFilter(db.Model(&models.Listing{}), filter).
		Preload("Images", imagesByUpload).
		Preload("Seller.Profile").
		Order(listingOrder(filter.SortBy)).
		Limit(filter.Limit).Offset((filter.Page - 1) * filter.Limit).
		Find(&listings).Error
	return listings, total, err
}

func listingOrder(sortBy string) string {
	switch sortBy {
	case SortPriceLow:
		return "price ASC"
	case SortPriceHigh:
		return "price DESC"
	default:
		return "created_at DESC"
	}
}

// applyListingFilter always restricts to APPROVED listings.
func applyListingFilter(q *gorm.DB, f ListingFilter) *gorm.DB {
	q = q.Where("status = ?", models.ListingStatusApproved)

	if f.ListingRole != "" {
		q = q.Where("listing_role = ?", f.ListingRole)
	}
	if len(f.Countries) > 0 {
		q = q.Where("country IN ?", f.Countries)
	}
	// && is array overlap: any tag in the category matches
	if len(f.Industries) > 0 {
		q = q.Where("industries && ?", pq.Array(f.Industries))
	}
	if len(f.Capabilities) > 0 {
		q = q.Where("capabilities && ?", pq.Array(f.Capabilities))
	}
	if len(f.Metals) > 0 {
		q = q.Where("metals && ?", pq.Array(f.Metals))
	}
	if f.PremiumStatus != "" {
		q = q.Where("premium_status = ?", f.PremiumStatus)
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.MetalType != "" {
		q = q.Where("metal_type = ?", f.MetalType)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.DateRangeDays > 0 {
		q = q.Where("created_at >= ?", time.Now().AddDate(0, 0, -f.DateRangeDays))
	}
	if f.Location != "" {
		like := "%" + f.Location + "%"
		q = q.Where("city ILIKE ? OR state ILIKE ?", like, like)
	}
	return q
}
