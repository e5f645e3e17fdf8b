package biz

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pdfvault/pdfvault-backend/internal/auth"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrAdminNotConfigured = errors.New("admin functionality is not configured")
)

// User is the domain model for an account
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepo abstracts user persistence
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdatePassword(ctx context.Context, email string, passwordHash string) error
	Delete(ctx context.Context, email string) error
	Count(ctx context.Context) (int64, error)
}

// Notifier sends out-of-band notifications to users. Implementations
// must be safe to skip: a nil Notifier disables notifications.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, toEmail string) error
}

// AdminCredentials is the operator login configured outside the user table
type AdminCredentials struct {
	Email        string
	PasswordHash string // bcrypt
}

// AuthUseCase implements registration, login and account administration
type AuthUseCase struct {
	repo     UserRepo
	jwt      *auth.JWTManager
	admin    AdminCredentials
	notifier Notifier
	logger   *logger.Logger
}

// NewAuthUseCase creates an AuthUseCase. notifier may be nil.
func NewAuthUseCase(repo UserRepo, jwt *auth.JWTManager, admin AdminCredentials, notifier Notifier, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		repo:     repo,
		jwt:      jwt,
		admin:    admin,
		notifier: notifier,
		logger:   log,
	}
}

// Register creates a new account
func (uc *AuthUseCase) Register(ctx context.Context, email, password string) (*User, error) {
	if !auth.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, ErrWeakPassword
	}

	if existing, err := uc.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           id.String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("user registered",
		zap.String("email", email),
		zap.String("user_id", user.ID))

	return user, nil
}

// Login verifies credentials and issues an access token.
// Lookup and password failures collapse into the same error so the
// response never reveals whether an email is registered.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := uc.repo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		uc.logger.WithContext(ctx).Warn("failed login attempt",
			zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	token, err := uc.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// AdminLogin verifies the configured operator credentials and issues a
// token carrying the admin claim
func (uc *AuthUseCase) AdminLogin(ctx context.Context, email, password string) (string, error) {
	if uc.admin.Email == "" || uc.admin.PasswordHash == "" {
		return "", ErrAdminNotConfigured
	}

	if email != uc.admin.Email || !auth.VerifyPassword(uc.admin.PasswordHash, password) {
		uc.logger.WithContext(ctx).Warn("failed admin login attempt",
			zap.String("email", email),
		)
		return "", ErrInvalidCredentials
	}

	return uc.jwt.GenerateAdminToken("admin", email)
}

// ListUsers returns all accounts, for the admin panel
func (uc *AuthUseCase) ListUsers(ctx context.Context) ([]*User, error) {
	return uc.repo.List(ctx)
}

// GetUserInfo returns a single account by email
func (uc *AuthUseCase) GetUserInfo(ctx context.Context, email string) (*User, error) {
	user, err := uc.repo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// AdminResetPassword replaces a user's password and notifies them
// by email when a notifier is configured. Notification failures are
// logged, never surfaced: the reset already happened.
func (uc *AuthUseCase) AdminResetPassword(ctx context.Context, email, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return ErrWeakPassword
	}

	user, err := uc.repo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return ErrUserNotFound
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := uc.repo.UpdatePassword(ctx, email, hash); err != nil {
		return err
	}

	uc.logger.WithContext(ctx).Info("password reset by admin",
		zap.String("email", email))

	if uc.notifier != nil {
		if err := uc.notifier.NotifyPasswordReset(ctx, email); err != nil {
			uc.logger.WithContext(ctx).Warn("password reset notification failed",
				zap.String("email", email),
				zap.Error(err))
		}
	}

	return nil
}

// DeleteUser removes an account
func (uc *AuthUseCase) DeleteUser(ctx context.Context, email string) error {
	user, err := uc.repo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return ErrUserNotFound
	}

	if err := uc.repo.Delete(ctx, email); err != nil {
		return err
	}

	uc.logger.WithContext(ctx).Info("user deleted",
		zap.String("email", email))
	return nil
}

// CountUsers returns the number of registered accounts
func (uc *AuthUseCase) CountUsers(ctx context.Context) (int64, error) {
	return uc.repo.Count(ctx)
}
