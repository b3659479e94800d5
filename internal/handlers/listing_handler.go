package handlers

import (
	"net/http"
	"strings"

	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	*BaseHandler
	listingService services.ListingService
}

func NewListingHandler(base *BaseHandler, listingService services.ListingService) *ListingHandler {
	return &ListingHandler{
		BaseHandler:    base,
		listingService: listingService,
	}
}

func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	listings := rg.Group("/listings")
	{
		listings.GET("", h.Search)
		listings.GET("/my", authMW, h.MyListings)
		listings.GET("/:id", h.GetListing)

		write := middleware.RequirePermission(auth.PermListingsWrite)
		listings.POST("", authMW, write, h.CreateListing)
		listings.PUT("/:id", authMW, write, h.UpdateListing)
		listings.DELETE("/:id", authMW, write, h.DeleteListing)
	}
}

// splitCSV lets multi-value filters arrive either repeated (?metal=a&metal=b)
// or comma separated (?metal=a,b).
func splitCSV(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Search godoc
// @Summary Browse approved listings
// @Description Only APPROVED listings are returned. Tag filters match any value within a category and all categories together.
// @Tags listings
// @Produce json
// @Param type query string false "buyers or suppliers"
// @Param country query []string false "Countries" collectionFormat(multi)
// @Param industry query []string false "Industries" collectionFormat(multi)
// @Param capability query []string false "Capabilities" collectionFormat(multi)
// @Param metal query []string false "Metals" collectionFormat(multi)
// @Param premium query string false "Premium status"
// @Param listingType query string false "Listing type"
// @Param dateRange query int false "Created within the last N days"
// @Param search query string false "Full text search on title and description"
// @Param metalType query string false "Metal type"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param location query string false "City, state or country"
// @Param sortBy query string false "newest, price-low, price-high"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.ListingPage
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /listings [get]
func (h *ListingHandler) Search(c *gin.Context) {
	var query dto.ListingQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	query.Country = splitCSV(query.Country)
	query.Industry = splitCSV(query.Industry)
	query.Capability = splitCSV(query.Capability)
	query.Metal = splitCSV(query.Metal)

	page, err := h.listingService.Search(c.Request.Context(), h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetListing godoc
// @Summary Listing details
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.ListingResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingService.FindOne(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// MyListings godoc
// @Summary Caller's listings in every status
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ListingResponse
// @Router /listings/my [get]
func (h *ListingHandler) MyListings(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	listings, err := h.listingService.MyListings(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// CreateListing godoc
// @Summary Submit a listing for moderation
// @Description New listings start PENDING. The plan's listing and image quotas apply.
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateListingRequest true "Listing"
// @Success 201 {object} dto.ListingResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /listings [post]
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateListingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// UpdateListing godoc
// @Summary Update an own listing
// @Description Editing an APPROVED listing sends it back to moderation.
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param request body dto.UpdateListingRequest true "Changed fields"
// @Success 200 {object} dto.ListingResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /listings/{id} [put]
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateListingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), h.GetDB(c), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing godoc
// @Summary Delete an own listing
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /listings/{id} [delete]
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.listingService.Delete(c.Request.Context(), h.GetDB(c), userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Listing deleted"})
}
