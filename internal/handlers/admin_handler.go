package handlers

import (
	"context"
	"net/http"

	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	*BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	admin := rg.Group("/admin", authMW, middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.GET("/logs", h.AuditLog)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/suspend", h.SuspendUser)
		admin.POST("/users/:id/reinstate", h.ReinstateUser)

		admin.GET("/listings/pending", h.PendingListings)
		admin.POST("/listings/:id/approve", h.ApproveListing)
		admin.POST("/listings/:id/reject", h.RejectListing)
		admin.POST("/listings/:id/feature", h.FeatureListing)
	}
}

// Dashboard godoc
// @Summary Marketplace totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardStats
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.DashboardStats(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers godoc
// @Summary Users with their plan and listing count
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.UserPage
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := ParsePagination(c)
	users, err := h.adminService.ListUsers(c.Request.Context(), h.GetDB(c), page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// PendingListings godoc
// @Summary Listings awaiting moderation, oldest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.ListingPage
// @Router /admin/listings/pending [get]
func (h *AdminHandler) PendingListings(c *gin.Context) {
	page, limit := ParsePagination(c)
	listings, err := h.adminService.PendingListings(c.Request.Context(), h.GetDB(c), page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// AuditLog godoc
// @Summary Admin actions, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.AuditLogPage
// @Router /admin/logs [get]
func (h *AdminHandler) AuditLog(c *gin.Context) {
	page, limit := ParsePagination(c)
	logs, err := h.adminService.AuditLog(c.Request.Context(), h.GetDB(c), page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

type adminAction func(ctx context.Context, db *gorm.DB, adminID, targetID string) error

func (h *AdminHandler) act(c *gin.Context, fn adminAction, message string) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), h.GetDB(c), adminID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: message})
}

// BanUser godoc
// @Summary Ban a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.act(c, h.adminService.BanUser, "User banned")
}

// SuspendUser godoc
// @Summary Suspend a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/users/{id}/suspend [post]
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	h.act(c, h.adminService.SuspendUser, "User suspended")
}

// ReinstateUser godoc
// @Summary Reactivate a suspended or banned user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/users/{id}/reinstate [post]
func (h *AdminHandler) ReinstateUser(c *gin.Context) {
	h.act(c, h.adminService.ReinstateUser, "User reinstated")
}

// ApproveListing godoc
// @Summary Approve a listing
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/listings/{id}/approve [post]
func (h *AdminHandler) ApproveListing(c *gin.Context) {
	h.act(c, h.adminService.ApproveListing, "Listing approved")
}

// RejectListing godoc
// @Summary Reject a listing
// @Description The optional reason is kept in the audit log and sent to the seller.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param request body dto.RejectListingRequest false "Reason"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/listings/{id}/reject [post]
func (h *AdminHandler) RejectListing(c *gin.Context) {
	var req dto.RejectListingRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}
	h.act(c, func(ctx context.Context, db *gorm.DB, adminID, listingID string) error {
		return h.adminService.RejectListing(ctx, db, adminID, listingID, req.Reason)
	}, "Listing rejected")
}

// FeatureListing godoc
// @Summary Feature a listing
// @Description Defaults to 7 days.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param request body dto.FeatureListingRequest false "Duration"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/listings/{id}/feature [post]
func (h *AdminHandler) FeatureListing(c *gin.Context) {
	var req dto.FeatureListingRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}
	h.act(c, func(ctx context.Context, db *gorm.DB, adminID, listingID string) error {
		return h.adminService.FeatureListing(ctx, db, adminID, listingID, req.Days)
	}, "Listing featured")
}
