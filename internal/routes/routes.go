package routes

import (
	"metalhub_backend/internal/handlers"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/metrics"
	"metalhub_backend/ws"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Guards are the per-route middlewares built from application state.
type Guards struct {
	Auth      gin.HandlerFunc
	AuthBurst gin.HandlerFunc
	// RateLimit applies to /api/v1 as a whole. Nil disables it.
	RateLimit gin.HandlerFunc
}

// RegisterRoutes mounts the REST API, the websocket endpoint and the
// operational endpoints.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	guards Guards,
) {
	ginRouter.GET("/health", appHandlers.HealthHandler.Health)
	ginRouter.GET("/metrics", gin.WrapH(metrics.Handler()))
	ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := ginRouter.Group("/api/v1")
	if guards.RateLimit != nil {
		api.Use(guards.RateLimit)
	}
	{
		appHandlers.AuthHandler.RegisterRoutes(api, guards.Auth, guards.AuthBurst)
		appHandlers.UserHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.MembershipHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.ListingHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.OfferHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.ChatHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.PaymentHandler.RegisterRoutes(api, guards.Auth)
		appHandlers.AdminHandler.RegisterRoutes(api, guards.Auth)
	}

	ginRouter.GET("/ws", guards.Auth, wsHandler.ServeWS)
	logger.Info("Routes registered", "count", len(ginRouter.Routes()))
}
