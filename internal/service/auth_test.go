package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akwaba-digital/auth-service/internal/dto"
	apperrors "github.com/akwaba-digital/auth-service/internal/errors"
	"github.com/akwaba-digital/auth-service/internal/model"
	"github.com/akwaba-digital/auth-service/internal/repository"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger("test"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// memStore is an in-memory UserStore for tests.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uint]*model.User)}
}

func (s *memStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memStore) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Phone == user.Phone {
			return errors.New("unique constraint violation: phone")
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *memStore) SetVerificationCode(_ context.Context, id uint, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.VerificationCode = &code
	user.VerificationCodeExpiresAt = &expiresAt
	return nil
}

func (s *memStore) MarkVerified(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiresAt = nil
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, id uint, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Password = hashedPassword
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// stubIssuer mints predictable tokens and records revocations.
type stubIssuer struct {
	counter int
	revoked []string
}

func (i *stubIssuer) Issue(_ context.Context, userID uint) (string, error) {
	i.counter++
	return fmt.Sprintf("token-%d-%d", userID, i.counter), nil
}

func (i *stubIssuer) Revoke(_ context.Context, claims *TokenClaims) error {
	i.revoked = append(i.revoked, claims.ID)
	return nil
}

// recordingSender captures sent messages and can simulate delivery failure.
type recordingSender struct {
	fail     bool
	messages []struct{ to, body string }
}

func (s *recordingSender) Send(_ context.Context, to, body string) error {
	if s.fail {
		return errors.New("delivery failed")
	}
	s.messages = append(s.messages, struct{ to, body string }{to, body})
	return nil
}

func (s *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	if len(s.messages) == 0 {
		t.Fatal("no sms sent")
	}
	body := s.messages[len(s.messages)-1].body
	idx := strings.LastIndex(body, ": ")
	if idx < 0 {
		t.Fatalf("unexpected sms body: %q", body)
	}
	return body[idx+2:]
}

func newTestService() (*AuthService, *memStore, *stubIssuer, *recordingSender) {
	store := newMemStore()
	issuer := &stubIssuer{}
	sender := &recordingSender{}
	svc := NewAuthService(store, issuer, sender, "+225", 10*time.Minute)
	return svc, store, issuer, sender
}

func registerRequest(phone string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		FirstName: "Awa",
		LastName:  "Kouassi",
		Phone:     phone,
		Password:  "secret-pass",
	}
}

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	svc, store, _, sender := newTestService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("07000000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.Token == "" {
		t.Error("expected a token in the register response")
	}
	if resp.User.IsVerified {
		t.Error("new user must not be verified")
	}

	user, err := store.GetByPhone(ctx, "+22507000000")
	if err != nil {
		t.Fatalf("expected user stored under canonical phone: %v", err)
	}
	if user.IsVerified {
		t.Error("stored user must not be verified")
	}
	if user.VerificationCode == nil || user.VerificationCodeExpiresAt == nil {
		t.Fatal("expected a pending verification code with expiry")
	}
	if len(*user.VerificationCode) != 4 {
		t.Errorf("expected 4-digit code, got %q", *user.VerificationCode)
	}
	if user.Password == "secret-pass" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret-pass")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	if len(sender.messages) != 1 {
		t.Fatalf("expected one sms, got %d", len(sender.messages))
	}
	if sender.messages[0].to != "+22507000000" {
		t.Errorf("sms sent to %q, want canonical phone", sender.messages[0].to)
	}
	if !strings.Contains(sender.messages[0].body, *user.VerificationCode) {
		t.Errorf("sms body %q missing code %q", sender.messages[0].body, *user.VerificationCode)
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, registerRequest("+22507000000"))
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	// Same number without the prefix normalizes to the same canonical phone.
	req := registerRequest("07000000")
	req.FirstName = "Other"
	_, err = svc.Register(ctx, req)
	if !errors.Is(err, apperrors.ErrPhoneExists) {
		t.Fatalf("expected ErrPhoneExists, got %v", err)
	}

	if store.count() != 1 {
		t.Errorf("expected one user, got %d", store.count())
	}
	original, err := store.GetByID(ctx, first.User.ID)
	if err != nil {
		t.Fatalf("first user missing: %v", err)
	}
	if original.FirstName != "Awa" {
		t.Errorf("first user mutated: %+v", original)
	}
}

func TestRegisterSmsFailureKeepsUser(t *testing.T) {
	svc, store, _, sender := newTestService()
	sender.fail = true
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("07000000"))
	if err == nil {
		t.Fatal("expected register to fail when sms delivery fails")
	}
	domainErr := apperrors.GetDomainError(err)
	if domainErr == nil || domainErr.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected internal error, got %v", err)
	}

	// No compensating rollback: the created row stays.
	if store.count() != 1 {
		t.Errorf("expected user row to survive sms failure, got %d rows", store.count())
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerRequest("07000000")); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassErr := svc.Login(ctx, &dto.LoginRequest{Phone: "07000000", Password: "wrong"})
	_, unknownPhoneErr := svc.Login(ctx, &dto.LoginRequest{Phone: "09999999", Password: "secret-pass"})

	if !errors.Is(wrongPassErr, apperrors.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassErr)
	}
	if !errors.Is(unknownPhoneErr, apperrors.ErrInvalidCredentials) {
		t.Errorf("unknown phone: expected ErrInvalidCredentials, got %v", unknownPhoneErr)
	}
	if wrongPassErr.Error() != unknownPhoneErr.Error() {
		t.Errorf("errors must be identical: %q vs %q", wrongPassErr, unknownPhoneErr)
	}
}

func TestLoginIssuesFreshCodeAndToken(t *testing.T) {
	svc, store, _, sender := newTestService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest("07000000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.Login(ctx, &dto.LoginRequest{Phone: "07000000", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.Token == reg.Token {
		t.Errorf("expected a fresh token, got %q", resp.Token)
	}
	if resp.User.IsVerified {
		t.Error("login must not change verification status")
	}

	if len(sender.messages) != 2 {
		t.Fatalf("expected two sms sends, got %d", len(sender.messages))
	}

	user, err := store.GetByPhone(ctx, "+22507000000")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.VerificationCode == nil || *user.VerificationCode != sender.lastCode(t) {
		t.Error("stored code must match the last code sent")
	}
}

func TestVerifyCode(t *testing.T) {
	svc, store, _, sender := newTestService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest("07000000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := sender.lastCode(t)

	t.Run("wrong code leaves state unchanged", func(t *testing.T) {
		user, _ := store.GetByID(ctx, reg.User.ID)
		if err := svc.VerifyCode(ctx, user, "0000"); !errors.Is(err, apperrors.ErrCodeInvalid) {
			t.Fatalf("expected ErrCodeInvalid, got %v", err)
		}
		stored, _ := store.GetByID(ctx, reg.User.ID)
		if stored.IsVerified || stored.VerificationCode == nil {
			t.Error("failed attempt must not consume the code or verify the user")
		}
	})

	t.Run("exact code before expiry verifies", func(t *testing.T) {
		user, _ := store.GetByID(ctx, reg.User.ID)
		if err := svc.VerifyCode(ctx, user, code); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !user.IsVerified || user.VerificationCode != nil || user.VerificationCodeExpiresAt != nil {
			t.Error("expected user verified with code cleared")
		}
		stored, _ := store.GetByID(ctx, reg.User.ID)
		if !stored.IsVerified || stored.VerificationCode != nil {
			t.Error("expected stored user verified with code cleared")
		}
	})

	t.Run("second attempt fails, code already consumed", func(t *testing.T) {
		user, _ := store.GetByID(ctx, reg.User.ID)
		if err := svc.VerifyCode(ctx, user, code); !errors.Is(err, apperrors.ErrCodeInvalid) {
			t.Fatalf("expected ErrCodeInvalid, got %v", err)
		}
	})
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, store, _, sender := newTestService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest("07000000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	code := sender.lastCode(t)

	// Push the expiry into the past.
	if err := store.SetVerificationCode(ctx, reg.User.ID, code, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("set code: %v", err)
	}

	user, _ := store.GetByID(ctx, reg.User.ID)
	if err := svc.VerifyCode(ctx, user, code); !errors.Is(err, apperrors.ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid for expired code, got %v", err)
	}
	stored, _ := store.GetByID(ctx, reg.User.ID)
	if stored.IsVerified {
		t.Error("expired code must not verify the user")
	}
}

func TestRequestReset(t *testing.T) {
	svc, _, _, sender := newTestService()
	ctx := context.Background()

	if _, err := svc.RequestReset(ctx, "07000000"); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := svc.Register(ctx, registerRequest("07000000")); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := svc.RequestReset(ctx, "07000000")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token from reset request")
	}
	if len(sender.messages) != 2 {
		t.Errorf("expected a second sms for the reset code, got %d sends", len(sender.messages))
	}
}

func TestResetPasswordReplacesHash(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerRequest("07000000"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, _ := store.GetByID(ctx, reg.User.ID)
	before := *user
	if err := svc.ResetPassword(ctx, user, "new-pass"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Phone: "07000000", Password: "secret-pass"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("old password must no longer authenticate, got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Phone: "07000000", Password: "new-pass"}); err != nil {
		t.Errorf("new password must authenticate: %v", err)
	}

	after, _ := store.GetByID(ctx, reg.User.ID)
	if after.Phone != before.Phone || after.IsVerified != before.IsVerified {
		t.Error("reset must not change phone or verification state")
	}
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
	svc, _, issuer, _ := newTestService()
	ctx := context.Background()

	claims := &TokenClaims{UserID: 1, ID: "jti-1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if len(issuer.revoked) != 1 || issuer.revoked[0] != "jti-1" {
		t.Errorf("expected exactly jti-1 revoked, got %v", issuer.revoked)
	}
}
