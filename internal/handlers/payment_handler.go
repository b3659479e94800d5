package handlers

import (
	"io"
	"net/http"

	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody         = 1 << 20
)

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	payment := rg.Group("/payment")
	{
		payment.POST("/create-order", authMW, middleware.RequirePermission(auth.PermMembershipBuy), h.CreateOrder)
		payment.GET("/history", authMW, h.History)
		// Called by the gateway; authenticity comes from the signature.
		payment.POST("/webhook", h.Webhook)
	}
}

// CreateOrder godoc
// @Summary Start a membership purchase
// @Description Creates a gateway order for SILVER or GOLD and a CREATED payment row.
// @Tags payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOrderRequest true "Plan"
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /payment/create-order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	order, err := h.paymentService.CreateOrder(c.Request.Context(), h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// History godoc
// @Summary Caller's payments
// @Tags payment
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Payment
// @Router /payment/history [get]
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.History(c.Request.Context(), h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// Webhook godoc
// @Summary Payment gateway webhook
// @Description Verifies the HMAC-SHA256 signature of the raw body. payment.captured activates the plan, payment.failed marks the payment.
// @Tags payment
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /payment/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "webhook body read failed", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Unreadable request body"))
		return
	}

	signature := c.GetHeader(webhookSignatureHeader)
	if err := h.paymentService.HandleWebhook(c.Request.Context(), h.GetDB(c), body, signature); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "ok"})
}
