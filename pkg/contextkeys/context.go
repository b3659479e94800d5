package contextkeys

type contextKey string

// DBContextKey holds the *gorm.DB (pool or test transaction) for a request.
const DBContextKey = contextKey("db")

// gin context keys set by the auth middleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	TokenKey  = "accessToken"
	ClaimsKey = "claims"
)
