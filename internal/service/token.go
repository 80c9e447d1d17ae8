package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/akwaba-digital/auth-service/internal/errors"
	"github.com/akwaba-digital/auth-service/pkg/redis"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const revokedKeyPrefix = "auth:revoked:"

// TokenClaims is the decoded content of a bearer token.
type TokenClaims struct {
	UserID    uint
	ID        string // jti, unique per issuance
	Scope     string
	ExpiresAt time.Time
}

// TokenIssuer mints and revokes bearer tokens bound to a user.
type TokenIssuer interface {
	Issue(ctx context.Context, userID uint) (string, error)
	Revoke(ctx context.Context, claims *TokenClaims) error
}

// TokenService issues HS256 JWTs and tracks revoked token IDs in Redis. Each
// token carries a unique jti so logout can revoke one issuance without
// touching the user's other tokens.
type TokenService struct {
	secretKey string
	tokenTTL  time.Duration
	store     *redis.Client
}

func NewTokenService(secretKey string, tokenTTL time.Duration, store *redis.Client) *TokenService {
	return &TokenService{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
		store:     store,
	}
}

// Issue creates a signed token for the user. All issuance points grant the
// wildcard scope: a token obtained through a reset request carries the same
// capabilities as one from login.
func (s *TokenService) Issue(ctx context.Context, userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"scope":   "*",
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Validate checks the token signature and expiry, then checks the revocation
// list. Revoked and malformed tokens are both rejected.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, err := claimsFromMap(mapClaims)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	revoked, err := s.store.Exists(ctx, revokedKeyPrefix+claims.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	return claims, nil
}

// Revoke denylists the token's jti until the token would have expired anyway,
// after which the entry is dropped by Redis.
func (s *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		// Already expired, nothing to revoke.
		return nil
	}

	if err := s.store.SetWithTTL(ctx, revokedKeyPrefix+claims.ID, "1", ttl); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return nil
}

func claimsFromMap(mapClaims jwt.MapClaims) (*TokenClaims, error) {
	userIDFloat, ok := mapClaims["user_id"].(float64)
	if !ok {
		return nil, errors.New("missing user_id claim")
	}

	jti, ok := mapClaims["jti"].(string)
	if !ok || jti == "" {
		return nil, errors.New("missing jti claim")
	}

	expFloat, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, errors.New("missing exp claim")
	}

	scope, _ := mapClaims["scope"].(string)

	return &TokenClaims{
		UserID:    uint(userIDFloat),
		ID:        jti,
		Scope:     scope,
		ExpiresAt: time.Unix(int64(expFloat), 0),
	}, nil
}
