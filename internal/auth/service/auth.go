package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/pdfvault/pdfvault-backend/internal/auth/biz"
	apperrors "github.com/pdfvault/pdfvault-backend/internal/pkg/errors"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// AuthService exposes the auth use case over HTTP
type AuthService struct {
	uc     *biz.AuthUseCase
	logger *logger.Logger
}

// NewAuthService creates an AuthService
func NewAuthService(uc *biz.AuthUseCase, log *logger.Logger) *AuthService {
	return &AuthService{
		uc:     uc,
		logger: log,
	}
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest is the admin password reset payload
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse carries the issued token
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	User        *UserResponse `json:"user,omitempty"`
}

func toUserResponse(u *biz.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Register handles POST /api/v1/auth/register
func (s *AuthService) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	user, err := s.uc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(c, mapAuthError(err))
		return
	}

	response.Created(c, toUserResponse(user))
}

// Login handles POST /api/v1/auth/login
func (s *AuthService) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	token, user, err := s.uc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(c, mapAuthError(err))
		return
	}

	response.Success(c, &LoginResponse{
		AccessToken: token,
		User:        toUserResponse(user),
	})
}

// AdminLogin handles POST /api/v1/auth/admin/login
func (s *AuthService) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	token, err := s.uc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(c, mapAuthError(err))
		return
	}

	response.Success(c, &LoginResponse{AccessToken: token})
}

// ListUsers handles GET /api/v1/admin/users
func (s *AuthService) ListUsers(c *gin.Context) {
	users, err := s.uc.ListUsers(c.Request.Context())
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Error("failed to list users", zap.Error(err))
		response.HandleError(c, mapAuthError(err))
		return
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	response.Success(c, gin.H{
		"users": out,
		"total": len(out),
	})
}

// ResetUserPassword handles PUT /api/v1/admin/users/:email/password
func (s *AuthService) ResetUserPassword(c *gin.Context) {
	email := c.Param("email")

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	if err := s.uc.AdminResetPassword(c.Request.Context(), email, req.NewPassword); err != nil {
		response.HandleError(c, mapAuthError(err))
		return
	}

	response.SuccessWithMessage(c, "password reset", nil)
}

// mapAuthError translates biz sentinel errors to coded AppErrors
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, biz.ErrInvalidCredentials):
		return apperrors.New(apperrors.ErrAuthInvalidCredentials)
	case errors.Is(err, biz.ErrEmailExists):
		return apperrors.New(apperrors.ErrAuthEmailExists)
	case errors.Is(err, biz.ErrUserNotFound):
		return apperrors.New(apperrors.ErrAuthUserNotFound)
	case errors.Is(err, biz.ErrInvalidEmail):
		return apperrors.New(apperrors.ErrAuthInvalidEmail)
	case errors.Is(err, biz.ErrWeakPassword):
		return apperrors.New(apperrors.ErrAuthWeakPassword)
	case errors.Is(err, biz.ErrAdminNotConfigured):
		return apperrors.New(apperrors.ErrAuthAdminNotConfigured)
	default:
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
}
