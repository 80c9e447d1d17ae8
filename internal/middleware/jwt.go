package middleware

import (
	"net/http"
	"strings"

	"github.com/akwaba-digital/auth-service/internal/constants"
	"github.com/akwaba-digital/auth-service/internal/model"
	"github.com/akwaba-digital/auth-service/internal/service"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JWTMiddleware struct {
	tokens *service.TokenService
	users  service.UserStore
}

func NewJWTMiddleware(tokens *service.TokenService, users service.UserStore) *JWTMiddleware {
	return &JWTMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// RequireAuth validates the bearer token, checks it against the revocation
// list and resolves the authenticated user, making both available to handlers
// through the request context.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.GetLogger().Warn("Missing Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			logger.GetLogger().Warn("Invalid Authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(c.Request.Context(), tokenParts[1])
		if err != nil {
			logger.GetLogger().Warn("Invalid, expired or revoked token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.GetLogger().Warn("Token subject not found",
				zap.Uint("user_id", claims.UserID),
				zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized",
			})
			c.Abort()
			return
		}

		c.Set(constants.CtxKeyUser, user)
		c.Set(constants.CtxKeyClaims, claims)

		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(constants.CtxKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

// CurrentClaims returns the token claims resolved by RequireAuth.
func CurrentClaims(c *gin.Context) (*service.TokenClaims, bool) {
	value, exists := c.Get(constants.CtxKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*service.TokenClaims)
	return claims, ok
}
