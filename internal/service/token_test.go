package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/akwaba-digital/auth-service/internal/errors"
	"github.com/akwaba-digital/auth-service/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
)

func newTestTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("miniredis port: %v", err)
	}

	store, err := redis.NewClient(redis.Config{
		Host: mr.Host(),
		Port: port,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewTokenService("test-secret", ttl, store)
}

func TestTokenIssueAndValidate(t *testing.T) {
	svc := newTestTokenService(t, 2160*time.Hour)
	ctx := context.Background()

	token, err := svc.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user 42, got %d", claims.UserID)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}
	if claims.Scope != "*" {
		t.Errorf("expected wildcard scope, got %q", claims.Scope)
	}

	wantExpiry := time.Now().Add(2160 * time.Hour)
	if diff := claims.ExpiresAt.Sub(wantExpiry); diff > time.Minute || diff < -time.Minute {
		t.Errorf("expiry %v not within a minute of %v", claims.ExpiresAt, wantExpiry)
	}
}

func TestTokenValidateRejectsTampered(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	ctx := context.Background()

	token, err := svc.Issue(ctx, 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Validate(ctx, token+"x"); err == nil {
		t.Error("expected tampered token to be rejected")
	}
	if _, err := svc.Validate(ctx, "not-a-token"); err == nil {
		t.Error("expected malformed token to be rejected")
	}
}

func TestTokenRevokeIsPerIssuance(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	ctx := context.Background()

	// Two independent tokens for the same user.
	first, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	firstClaims, err := svc.Validate(ctx, first)
	if err != nil {
		t.Fatalf("validate first: %v", err)
	}

	if err := svc.Revoke(ctx, firstClaims); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := svc.Validate(ctx, first); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Errorf("expected revoked token rejection, got %v", err)
	}
	if _, err := svc.Validate(ctx, second); err != nil {
		t.Errorf("second token must remain valid after revoking the first: %v", err)
	}
}

func TestTokenRevokeExpiredIsNoop(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	ctx := context.Background()

	claims := &TokenClaims{UserID: 1, ID: "stale", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := svc.Revoke(ctx, claims); err != nil {
		t.Fatalf("revoking an already expired token should be a no-op: %v", err)
	}
}
