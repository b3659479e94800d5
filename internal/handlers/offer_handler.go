package handlers

import (
	"context"
	"net/http"

	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OfferHandler struct {
	*BaseHandler
	offerService services.OfferService
}

func NewOfferHandler(base *BaseHandler, offerService services.OfferService) *OfferHandler {
	return &OfferHandler{
		BaseHandler:  base,
		offerService: offerService,
	}
}

func (h *OfferHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	offers := rg.Group("/offers", authMW)
	{
		create := middleware.RequirePermission(auth.PermOffersCreate)
		decide := middleware.RequirePermission(auth.PermOffersDecide)

		offers.POST("/listing/:listingId", create, h.CreateOffer)
		offers.GET("/listing/:listingId", decide, h.ListForListing)
		offers.GET("/my", h.ListMine)
		offers.POST("/:id/accept", decide, h.Accept)
		offers.POST("/:id/reject", decide, h.Reject)
	}
}

// CreateOffer godoc
// @Summary Make an offer on a negotiable listing
// @Tags offers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param listingId path string true "Listing ID"
// @Param request body dto.CreateOfferRequest true "Offer"
// @Success 201 {object} models.Offer
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /offers/listing/{listingId} [post]
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOfferRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	offer, err := h.offerService.CreateOffer(c.Request.Context(), h.GetDB(c), userID, c.Param("listingId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// ListForListing godoc
// @Summary Offers received on an own listing
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param listingId path string true "Listing ID"
// @Success 200 {array} models.Offer
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /offers/listing/{listingId} [get]
func (h *OfferHandler) ListForListing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListForListing(c.Request.Context(), h.GetDB(c), userID, c.Param("listingId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// ListMine godoc
// @Summary Offers the caller has made
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Offer
// @Router /offers/my [get]
func (h *OfferHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListMine(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

// Accept godoc
// @Summary Accept a pending offer
// @Description Every other pending offer on the listing is rejected.
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} models.Offer
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /offers/{id}/accept [post]
func (h *OfferHandler) Accept(c *gin.Context) {
	h.decide(c, h.offerService.Accept)
}

// Reject godoc
// @Summary Reject a pending offer
// @Tags offers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Offer ID"
// @Success 200 {object} models.Offer
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /offers/{id}/reject [post]
func (h *OfferHandler) Reject(c *gin.Context) {
	h.decide(c, h.offerService.Reject)
}

type offerDecision func(ctx context.Context, db *gorm.DB, sellerID, offerID string) (*models.Offer, error)

func (h *OfferHandler) decide(c *gin.Context, fn offerDecision) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	offer, err := fn(c.Request.Context(), h.GetDB(c), userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}
