package handlers

import (
	"net/http"

	"metalhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type MembershipHandler struct {
	*BaseHandler
	membershipService services.MembershipService
}

func NewMembershipHandler(base *BaseHandler, membershipService services.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		BaseHandler:       base,
		membershipService: membershipService,
	}
}

func (h *MembershipHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	membership := rg.Group("/membership", authMW)
	{
		membership.GET("/current", h.GetCurrent)
		membership.GET("/limits", h.GetLimits)
	}
}

// GetCurrent godoc
// @Summary Caller's active membership
// @Description A missing or lapsed membership is replaced by a non-expiring FREE one.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Membership
// @Router /membership/current [get]
func (h *MembershipHandler) GetCurrent(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	m, err := h.membershipService.GetCurrentMembership(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetLimits godoc
// @Summary Limits of the caller's plan
// @Description -1 means unlimited.
// @Tags membership
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PlanLimits
// @Router /membership/limits [get]
func (h *MembershipHandler) GetLimits(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	limits, err := h.membershipService.GetLimits(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, limits)
}
