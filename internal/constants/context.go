package constants

// Gin context keys set by the JWT middleware and read by handlers.
const (
	CtxKeyUser   = "auth_user"
	CtxKeyClaims = "auth_claims"
)
