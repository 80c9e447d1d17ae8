package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/akwaba-digital/auth-service/internal/dto"
	apperrors "github.com/akwaba-digital/auth-service/internal/errors"
	"github.com/akwaba-digital/auth-service/internal/model"
	"github.com/akwaba-digital/auth-service/internal/phone"
	"github.com/akwaba-digital/auth-service/internal/repository"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the auth flows need. It must enforce
// phone uniqueness.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	SetVerificationCode(ctx context.Context, id uint, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id uint) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

// AuthService implements registration, login, password reset and
// verification-code confirmation over a UserStore, a TokenIssuer and an
// SmsSender.
type AuthService struct {
	users              UserStore
	tokens             TokenIssuer
	sms                SmsSender
	defaultCountryCode string
	codeTTL            time.Duration
}

func NewAuthService(users UserStore, tokens TokenIssuer, sms SmsSender, defaultCountryCode string, codeTTL time.Duration) *AuthService {
	return &AuthService{
		users:              users,
		tokens:             tokens,
		sms:                sms,
		defaultCountryCode: defaultCountryCode,
		codeTTL:            codeTTL,
	}
}

// Register creates an unverified user, texts them a fresh code and hands back
// a long-lived token. SMS delivery happens before token issuance; if either
// fails the created user row stays in place.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	normalized := phone.Normalize(req.Phone, s.defaultCountryCode)

	if _, err := s.users.GetByPhone(ctx, normalized); err == nil {
		return nil, apperrors.ErrPhoneExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	expiresAt := time.Now().Add(s.codeTTL)

	user := &model.User{
		Avatar:                    req.Avatar,
		FirstName:                 strings.TrimSpace(req.FirstName),
		LastName:                  strings.TrimSpace(req.LastName),
		Phone:                     normalized,
		Email:                     req.Email,
		Password:                  hashedPassword,
		IsVerified:                false,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expiresAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.sendCode(ctx, user.Phone, code); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.LogAuth(fmt.Sprint(user.ID), "register", true)

	return &dto.AuthResponse{
		Message: "Registration successful, a verification code has been sent.",
		User:    toUserResponse(user),
		Token:   token,
	}, nil
}

// Login authenticates by phone and password. An unknown phone and a wrong
// password return the identical error. On success a fresh verification code
// overwrites any pending one and a new token is issued; the user's verified
// status is untouched.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	normalized := phone.Normalize(req.Phone, s.defaultCountryCode)

	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.LogAuth("", "login", false, zap.String("reason", "unknown phone"))
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !checkPassword(user.Password, req.Password) {
		logger.LogAuth(fmt.Sprint(user.ID), "login", false, zap.String("reason", "bad password"))
		return nil, apperrors.ErrInvalidCredentials
	}

	code, expiresAt, err := s.refreshCode(ctx, user)
	if err != nil {
		return nil, err
	}
	user.VerificationCode = &code
	user.VerificationCodeExpiresAt = &expiresAt

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.LogAuth(fmt.Sprint(user.ID), "login", true)

	return &dto.AuthResponse{
		Message: "Login successful, a verification code has been sent.",
		User:    toUserResponse(user),
		Token:   token,
	}, nil
}

// RequestReset re-sends a verification code to an existing user and issues a
// token. No password changes here. The returned token is not scoped down to
// reset-only use; it grants the same capabilities as a login token.
func (s *AuthService) RequestReset(ctx context.Context, rawPhone string) (*dto.TokenResponse, error) {
	normalized := phone.Normalize(rawPhone, s.defaultCountryCode)

	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if _, _, err := s.refreshCode(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.TokenResponse{
		Message: "Verification code sent.",
		Token:   token,
	}, nil
}

// ResetPassword replaces the authenticated user's password hash. Verification
// state and any pending code are left alone.
func (s *AuthService) ResetPassword(ctx context.Context, user *model.User, password string) error {
	hashedPassword, err := hashPassword(password)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return nil
}

// VerifyCode confirms phone ownership. The submitted code must match the
// stored one exactly and the current time must be strictly before the expiry.
// A mismatch and an expired code produce the same error; a matching code is
// consumed so a second submission fails.
func (s *AuthService) VerifyCode(ctx context.Context, user *model.User, code string) error {
	if user.VerificationCode == nil || user.VerificationCodeExpiresAt == nil {
		return apperrors.ErrCodeInvalid
	}

	if *user.VerificationCode != code || !time.Now().Before(*user.VerificationCodeExpiresAt) {
		return apperrors.ErrCodeInvalid
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user.IsVerified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiresAt = nil

	return nil
}

// Logout revokes the presenting token only. Other tokens issued to the same
// user remain valid.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return err
	}

	logger.LogAuth(fmt.Sprint(claims.UserID), "logout", true)

	return nil
}

// refreshCode generates a new code and expiry, persists them and texts the
// code to the user.
func (s *AuthService) refreshCode(ctx context.Context, user *model.User) (string, time.Time, error) {
	code, err := generateVerificationCode()
	if err != nil {
		return "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	expiresAt := time.Now().Add(s.codeTTL)

	if err := s.users.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.sendCode(ctx, user.Phone, code); err != nil {
		return "", time.Time{}, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return code, expiresAt, nil
}

func (s *AuthService) sendCode(ctx context.Context, to, code string) error {
	return s.sms.Send(ctx, to, fmt.Sprintf("Your verification code is: %s", code))
}

// generateVerificationCode draws a 4-digit code in [1000, 9999].
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprint(n.Int64() + 1000), nil
}

// hashPassword hashes password using bcrypt
func hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// checkPassword verifies password against hash
func checkPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Avatar:     user.Avatar,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
