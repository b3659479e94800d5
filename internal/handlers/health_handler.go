package handlers

import (
	"context"
	"net/http"
	"time"

	"metalhub_backend/internal/cache"
	"metalhub_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache cache.Cache
}

func NewHealthHandler(db *gorm.DB, c cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

// Health godoc
// @Summary Liveness and dependency check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "up", "cache": "up"}
	healthy := true

	if err := h.pingDB(ctx); err != nil {
		logger.CtxWithError(ctx, "health: database unreachable", err)
		checks["database"] = "down"
		healthy = false
	}
	if h.cache != nil {
		if _, err := h.cache.Exists(ctx, "health:probe"); err != nil {
			logger.CtxWithError(ctx, "health: cache unreachable", err)
			checks["cache"] = "down"
			healthy = false
		}
	}

	resp := HealthResponse{Status: "ok", Checks: checks, Time: time.Now().UTC()}
	if !healthy {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) pingDB(ctx context.Context) error {
	if h.db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
