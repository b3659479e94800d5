package services

import (
	"context"
	"encoding/json"
	"errors"

	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/repositories"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const recentPaymentsLimit = 10

type AdminService interface {
	BanUser(ctx context.Context, db *gorm.DB, adminID, userID string) error
	SuspendUser(ctx context.Context, db *gorm.DB, adminID, userID string) error
	ReinstateUser(ctx context.Context, db *gorm.DB, adminID, userID string) error

	ApproveListing(ctx context.Context, db *gorm.DB, adminID, listingID string) error
	RejectListing(ctx context.Context, db *gorm.DB, adminID, listingID, reason string) error
	FeatureListing(ctx context.Context, db *gorm.DB, adminID, listingID string, days int) error

	ListUsers(ctx context.Context, db *gorm.DB, page, limit int) (*dto.UserPage, error)
	PendingListings(ctx context.Context, db *gorm.DB, page, limit int) (*dto.ListingPage, error)
	AuditLog(ctx context.Context, db *gorm.DB, page, limit int) (*dto.AuditLogPage, error)
	DashboardStats(ctx context.Context, db *gorm.DB) (*dto.DashboardStats, error)
}

type AdminServiceImpl struct {
	userRepo       repositories.UserRepository
	listingRepo    repositories.ListingRepository
	membershipRepo repositories.MembershipRepository
	paymentRepo    repositories.PaymentRepository
	adminLogRepo   repositories.AdminLogRepository
	listingService ListingService
	notifier       Notifier
}

func NewAdminService(
	userRepo repositories.UserRepository,
	listingRepo repositories.ListingRepository,
	membershipRepo repositories.MembershipRepository,
	paymentRepo repositories.PaymentRepository,
	adminLogRepo repositories.AdminLogRepository,
	listingService ListingService,
	notifier Notifier,
) AdminService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &AdminServiceImpl{
		userRepo:       userRepo,
		listingRepo:    listingRepo,
		membershipRepo: membershipRepo,
		paymentRepo:    paymentRepo,
		adminLogRepo:   adminLogRepo,
		listingService: listingService,
		notifier:       notifier,
	}
}

// ==========================
// User moderation
// ==========================

func (s *AdminServiceImpl) BanUser(ctx context.Context, db *gorm.DB, adminID, userID string) error {
	return s.setUserStatus(ctx, db, adminID, userID, models.UserStatusBanned, models.ActionBanUser)
}

func (s *AdminServiceImpl) SuspendUser(ctx context.Context, db *gorm.DB, adminID, userID string) error {
	return s.setUserStatus(ctx, db, adminID, userID, models.UserStatusSuspended, models.ActionSuspendUser)
}

func (s *AdminServiceImpl) ReinstateUser(ctx context.Context, db *gorm.DB, adminID, userID string) error {
	return s.setUserStatus(ctx, db, adminID, userID, models.UserStatusActive, models.ActionReinstateUser)
}

func (s *AdminServiceImpl) setUserStatus(ctx context.Context, db *gorm.DB, adminID, userID string, status models.UserStatus, action models.AdminAction) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.requireAdmin(tx, adminID); err != nil {
		return err
	}
	if userID == adminID {
		return apperrors.ErrCannotModifySelf
	}

	target, err := s.userRepo.LockByID(tx, userID)
	if err != nil {
		return handleAdminError(err)
	}
	if target.Role == models.UserRoleAdmin {
		return apperrors.ErrCannotModifyAdmin
	}

	if err := s.userRepo.UpdateStatus(tx, userID, status); err != nil {
		return handleAdminError(err)
	}
	if err := s.logAction(tx, adminID, action, userID, nil); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "user status changed", "target_id", userID, "status", status)
	return nil
}

// ==========================
// Listing moderation
// ==========================

func (s *AdminServiceImpl) ApproveListing(ctx context.Context, db *gorm.DB, adminID, listingID string) error {
	listing, err := s.moderate(ctx, db, adminID, listingID, models.ActionApproveListing, nil,
		func(tx *gorm.DB) (*models.Listing, error) {
			return s.listingService.Approve(ctx, tx, listingID)
		})
	if err != nil {
		return err
	}
	s.notifySeller(ctx, db, listing, "")
	return nil
}

// RejectListing keeps the reason in the audit metadata only.
func (s *AdminServiceImpl) RejectListing(ctx context.Context, db *gorm.DB, adminID, listingID, reason string) error {
	listing, err := s.moderate(ctx, db, adminID, listingID, models.ActionRejectListing, map[string]interface{}{"reason": reason},
		func(tx *gorm.DB) (*models.Listing, error) {
			return s.listingService.Reject(ctx, tx, listingID)
		})
	if err != nil {
		return err
	}
	s.notifySeller(ctx, db, listing, reason)
	return nil
}

func (s *AdminServiceImpl) FeatureListing(ctx context.Context, db *gorm.DB, adminID, listingID string, days int) error {
	if days <= 0 {
		days = defaultFeatureDays
	}
	_, err := s.moderate(ctx, db, adminID, listingID, models.ActionFeatureListing, map[string]interface{}{"days": days},
		func(tx *gorm.DB) (*models.Listing, error) {
			return s.listingService.Feature(ctx, tx, listingID, days)
		})
	return err
}

// moderate runs requireAdmin, the listing mutation and the audit append in one transaction.
func (s *AdminServiceImpl) moderate(
	ctx context.Context,
	db *gorm.DB,
	adminID, listingID string,
	action models.AdminAction,
	metadata map[string]interface{},
	mutate func(tx *gorm.DB) (*models.Listing, error),
) (*models.Listing, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.requireAdmin(tx, adminID); err != nil {
		return nil, err
	}

	listing, err := mutate(tx)
	if err != nil {
		return nil, err
	}
	if err := s.logAction(tx, adminID, action, listingID, metadata); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	if action != models.ActionFeatureListing {
		metrics.ListingsModerated.WithLabelValues(string(listing.Status)).Inc()
	}
	logger.CtxInfo(ctx, "listing moderated", "listing_id", listingID, "action", action)
	return listing, nil
}

func (s *AdminServiceImpl) notifySeller(ctx context.Context, db *gorm.DB, listing *models.Listing, reason string) {
	seller, err := s.userRepo.FindByID(db.WithContext(ctx), listing.SellerID)
	if err != nil {
		logger.CtxWarn(ctx, "listing seller lookup failed", "seller_id", listing.SellerID, "error", err)
		return
	}
	s.notifier.ListingModerated(ctx, seller, listing, listing.Status, reason)
}

// ==========================
// Reads
// ==========================

func (s *AdminServiceImpl) ListUsers(ctx context.Context, db *gorm.DB, page, limit int) (*dto.UserPage, error) {
	page, limit = normalizePage(page, limit)
	db = db.WithContext(ctx)

	users, total, err := s.userRepo.List(db, page, limit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	plans, err := s.membershipRepo.ActivePlans(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	counts, err := s.listingRepo.CountBySellers(db, ids)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	result := make([]dto.AdminUser, 0, len(users))
	for _, u := range users {
		result = append(result, dto.AdminUser{
			User:         u,
			ActivePlan:   plans[u.ID],
			ListingCount: counts[u.ID],
		})
	}
	return &dto.UserPage{
		Users:      result,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

func (s *AdminServiceImpl) PendingListings(ctx context.Context, db *gorm.DB, page, limit int) (*dto.ListingPage, error) {
	return s.listingService.PendingListings(ctx, db, page, limit)
}

func (s *AdminServiceImpl) AuditLog(ctx context.Context, db *gorm.DB, page, limit int) (*dto.AuditLogPage, error) {
	page, limit = normalizePage(page, limit)

	logs, total, err := s.adminLogRepo.List(db.WithContext(ctx), page, limit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &dto.AuditLogPage{
		Logs:       logs,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

func (s *AdminServiceImpl) DashboardStats(ctx context.Context, db *gorm.DB) (*dto.DashboardStats, error) {
	var stats dto.DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	conn := db.WithContext(gctx)

	g.Go(func() (err error) {
		stats.TotalUsers, err = s.userRepo.Count(conn)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalListings, err = s.listingRepo.Count(conn)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingListings, err = s.listingRepo.CountByStatus(conn, models.ListingStatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveMemberships, err = s.membershipRepo.CountActive(conn)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentPayments, err = s.paymentRepo.Recent(conn, recentPaymentsLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if stats.RecentPayments == nil {
		stats.RecentPayments = []models.Payment{}
	}
	return &stats, nil
}

// ==========================
// Helpers
// ==========================

// requireAdmin reads the actor's role from the database, not from the token.
func (s *AdminServiceImpl) requireAdmin(db *gorm.DB, adminID string) error {
	actor, err := s.userRepo.FindByID(db, adminID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrAdminRequired
		}
		return apperrors.DatabaseError(err)
	}
	if actor.Role != models.UserRoleAdmin || !actor.IsActive() {
		return apperrors.ErrAdminRequired
	}
	return nil
}

func (s *AdminServiceImpl) logAction(db *gorm.DB, adminID string, action models.AdminAction, targetID string, metadata map[string]interface{}) error {
	entry := &models.AdminLog{
		AdminID:  adminID,
		Action:   action,
		TargetID: &targetID,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return apperrors.InternalError(err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	if err := s.adminLogRepo.Create(db, entry); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

func handleAdminError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.DatabaseError(err)
}
