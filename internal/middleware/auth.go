package middleware

import (
	"errors"
	"strings"

	"metalhub_backend/internal/auth"
	"metalhub_backend/internal/logger"
	"metalhub_backend/internal/models"
	"metalhub_backend/internal/services"
	"metalhub_backend/pkg/apperrors"
	"metalhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware verifies the bearer token, rejects revoked sessions and
// inactive accounts, and stores the caller identity on the context.
func AuthMiddleware(tokens *auth.TokenManager, authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				apperrors.HandleError(c, apperrors.ErrTokenExpired)
				return
			}
			apperrors.HandleError(c, apperrors.ErrInvalidToken)
			return
		}

		user, err := authService.ValidateSession(c.Request.Context(), requestDB(c), tokenStr, claims)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		// Role comes from the database so demotions apply to live tokens.
		c.Set(contextkeys.UserIDKey, user.ID)
		c.Set(contextkeys.RoleKey, user.Role)
		c.Set(contextkeys.TokenKey, tokenStr)
		c.Set(contextkeys.ClaimsKey, claims)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// BearerToken reads the token from the Authorization header, falling back
// to the token query parameter for websocket upgrades.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		return token, token != ""
	}
	if token := c.Query("token"); token != "" && c.IsWebsocket() {
		return token, true
	}
	return "", false
}

// RoleMiddleware lets only requiredRole through.
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return RequireRoles(requiredRole)
}

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	denied := apperrors.ErrInsufficientPermissions
	if len(roles) == 1 && roles[0] == models.UserRoleAdmin {
		denied = apperrors.ErrAdminRequired
	}

	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, denied)
			return
		}
		c.Next()
	}
}

// RequirePermission checks the RBAC table in internal/auth.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok || !auth.HasPermission(role, permission) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) (models.UserRole, bool) {
	val, exists := c.Get(contextkeys.RoleKey)
	if !exists {
		return "", false
	}
	switch role := val.(type) {
	case models.UserRole:
		return role, true
	case string:
		return models.UserRole(role), true
	}
	return "", false
}

func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	val, exists := c.Get(contextkeys.ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*auth.Claims)
	return claims, ok
}

func requestDB(c *gin.Context) *gorm.DB {
	if db, ok := c.Get(string(contextkeys.DBContextKey)); ok {
		if gdb, ok := db.(*gorm.DB); ok {
			return gdb
		}
	}
	return nil
}
