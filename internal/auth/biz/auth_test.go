package biz

import (
	"context"
	"testing"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/auth"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	if _, ok := r.users[user.Email]; ok {
		return ErrEmailExists
	}
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*User, error) {
	out := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	user, ok := r.users[email]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, email string) error {
	delete(r.users, email)
	return nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type recordingNotifier struct {
	notified []string
}

func (n *recordingNotifier) NotifyPasswordReset(ctx context.Context, toEmail string) error {
	n.notified = append(n.notified, toEmail)
	return nil
}

func newTestUseCase(t *testing.T, notifier Notifier) (*AuthUseCase, *fakeUserRepo) {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)

	adminHash, err := auth.HashPassword("admin-secret")
	require.NoError(t, err)

	repo := newFakeUserRepo()
	uc := NewAuthUseCase(
		repo,
		auth.NewJWTManager("test-secret", "pdfvault-test", time.Minute),
		AdminCredentials{Email: "admin@example.com", PasswordHash: adminHash},
		notifier,
		log,
	)
	return uc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	ctx := context.Background()

	user, err := uc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	token, loggedIn, err := uc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterValidation(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	ctx := context.Background()

	_, err := uc.Register(ctx, "not-an-email", "secret123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = uc.Register(ctx, "bob@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = uc.Register(ctx, "bob@example.com", "secret123")
	require.NoError(t, err)

	_, err = uc.Register(ctx, "bob@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	ctx := context.Background()

	_, err := uc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	_, _, errUnknown := uc.Login(ctx, "nobody@example.com", "secret123")
	_, _, errWrongPass := uc.Login(ctx, "alice@example.com", "wrong-pass")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
}

func TestAdminLogin(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	ctx := context.Background()

	token, err := uc.AdminLogin(ctx, "admin@example.com", "admin-secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = uc.AdminLogin(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.AdminLogin(ctx, "other@example.com", "admin-secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminLoginNotConfigured(t *testing.T) {
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)

	uc := NewAuthUseCase(
		newFakeUserRepo(),
		auth.NewJWTManager("test-secret", "pdfvault-test", time.Minute),
		AdminCredentials{},
		nil,
		log,
	)

	_, err = uc.AdminLogin(context.Background(), "admin@example.com", "anything")
	assert.ErrorIs(t, err, ErrAdminNotConfigured)
}

func TestAdminResetPassword(t *testing.T) {
	notifier := &recordingNotifier{}
	uc, _ := newTestUseCase(t, notifier)
	ctx := context.Background()

	_, err := uc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	err = uc.AdminResetPassword(ctx, "alice@example.com", "new-secret")
	require.NoError(t, err)

	_, _, err = uc.Login(ctx, "alice@example.com", "secret123")
	assert.Error(t, err)

	_, _, err = uc.Login(ctx, "alice@example.com", "new-secret")
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, notifier.notified)

	err = uc.AdminResetPassword(ctx, "ghost@example.com", "new-secret")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = uc.AdminResetPassword(ctx, "alice@example.com", "nope")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestDeleteUser(t *testing.T) {
	uc, repo := newTestUseCase(t, nil)
	ctx := context.Background()

	_, err := uc.Register(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteUser(ctx, "alice@example.com"))
	assert.Empty(t, repo.users)

	err = uc.DeleteUser(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
