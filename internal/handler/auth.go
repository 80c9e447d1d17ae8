package handler

import (
	"net/http"

	"github.com/akwaba-digital/auth-service/internal/constants"
	"github.com/akwaba-digital/auth-service/internal/dto"
	apperrors "github.com/akwaba-digital/auth-service/internal/errors"
	"github.com/akwaba-digital/auth-service/internal/middleware"
	"github.com/akwaba-digital/auth-service/internal/service"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// respondError maps a domain error to its status code. Client errors carry the
// domain message; everything else collapses to a 500 with the raw failure
// description, with no distinction between causes.
func respondError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		c.JSON(status, gin.H{constants.ResponseFieldError: err.Error()})
		return
	}
	c.JSON(status, constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}

// Register handles new user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Warn("Invalid register request",
			zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", dto.ValidationDetails(err)))
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		logger.GetLogger().Warn("Registration failed",
			zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Warn("Invalid login request",
			zap.Error(err))
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", dto.ValidationDetails(err)))
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RequestReset re-sends a verification code and issues a token
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req dto.RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", dto.ValidationDetails(err)))
		return
	}

	response, err := h.authService.RequestReset(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword replaces the authenticated user's password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", dto.ValidationDetails(err)))
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(apperrors.ErrUserNotFound.Message, nil))
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), user, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Password reset successfully."))
}

// VerifyCode confirms the SMS verification code for the authenticated user
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req dto.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", dto.ValidationDetails(err)))
		return
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, constants.BuildErrorResponse(apperrors.ErrUserNotFound.Message, nil))
		return
	}

	if err := h.authService.VerifyCode(c.Request.Context(), user, req.VerificationCode); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Verification successful, registration complete."))
}

// Logout revokes the presenting token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logout successful."))
}
