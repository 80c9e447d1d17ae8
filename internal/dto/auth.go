package dto

import "time"

type RegisterRequest struct {
	Avatar    *string `json:"avatar" binding:"omitempty,max=255"`
	FirstName string  `json:"first_name" binding:"required,min=2,max=50"`
	LastName  string  `json:"last_name" binding:"required,min=2,max=50"`
	Phone     string  `json:"phone" binding:"required,phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  string  `json:"password" binding:"required,min=6,max=100"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RequestResetRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=100"`
}

type VerifyCodeRequest struct {
	VerificationCode string `json:"verification_code" binding:"required,numeric"`
}

// UserResponse deliberately omits phone and password hash: neither is exposed
// outside the store.
type UserResponse struct {
	ID         uint      `json:"id"`
	Avatar     *string   `json:"avatar,omitempty"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      *string   `json:"email,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
