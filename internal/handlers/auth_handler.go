package handlers

import (
	"net/http"

	"metalhub_backend/internal/middleware"
	"metalhub_backend/internal/services"
	"metalhub_backend/internal/services/dto"
	"metalhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

const deviceFingerprintHeader = "X-Device-Fingerprint"

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes mounts /auth. burst throttles the unauthenticated
// endpoints on top of the global limiter.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, burst gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", burst, h.Register)
		auth.POST("/login", burst, h.Login)
		auth.POST("/whatsapp-otp", burst, h.SendWhatsAppOTP)
		auth.POST("/verify-otp", burst, h.VerifyOTP)
		auth.POST("/logout", authMW, h.Logout)
	}
}

func clientInfo(c *gin.Context) dto.ClientInfo {
	return dto.ClientInfo{
		IPAddress:         c.ClientIP(),
		DeviceFingerprint: c.GetHeader(deviceFingerprintHeader),
	}
}

// Register godoc
// @Summary Register a buyer or seller
// @Description Email or phone is required; a password is required with an email. The first registration from a device fingerprint gets a trial membership.
// @Tags auth
// @Accept json
// @Produce json
// @Param X-Device-Fingerprint header string false "Device fingerprint"
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), h.GetDB(c), &req, clientInfo(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req, clientInfo(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendWhatsAppOTP godoc
// @Summary Send a one-time code to a registered phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.WhatsAppOTPRequest true "Phone"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /auth/whatsapp-otp [post]
func (h *AuthHandler) SendWhatsAppOTP(c *gin.Context) {
	var req dto.WhatsAppOTPRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.SendWhatsAppOTP(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "OTP sent"})
}

// VerifyOTP godoc
// @Summary Verify a one-time code and log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Phone and code"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.VerifyOTP(c.Request.Context(), h.GetDB(c), &req, clientInfo(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Revoke the current access token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	claims, hasClaims := middleware.GetClaims(c)
	if !ok || !hasClaims {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token, claims); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Successfully logged out"})
}
