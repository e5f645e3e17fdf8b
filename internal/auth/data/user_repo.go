package data

import (
	"context"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/auth/biz"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// UserPO is the persistence object for the users table
type UserPO struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name
func (UserPO) TableName() string {
	return "users"
}

func (po *UserPO) toDomain() *biz.User {
	return &biz.User{
		ID:           po.ID,
		Email:        po.Email,
		PasswordHash: po.PasswordHash,
		CreatedAt:    po.CreatedAt,
	}
}

// userRepo implements biz.UserRepo backed by PostgreSQL
type userRepo struct {
	db     *database.DB
	logger *logger.Logger
}

// NewUserRepo creates a user repository
func NewUserRepo(db *database.DB, log *logger.Logger) biz.UserRepo {
	return &userRepo{
		db:     db,
		logger: log,
	}
}

func (r *userRepo) Create(ctx context.Context, user *biz.User) error {
	po := &UserPO{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}

	if err := r.db.GetDB().WithContext(ctx).Create(po).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return biz.ErrEmailExists
		}
		r.logger.WithContext(ctx).Error("failed to create user", zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*biz.User, error) {
	var po UserPO
	err := r.db.GetDB().WithContext(ctx).
		Where("email = ?", email).
		First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrUserNotFound
		}
		return nil, err
	}
	return po.toDomain(), nil
}

func (r *userRepo) List(ctx context.Context) ([]*biz.User, error) {
	var pos []UserPO
	err := r.db.GetDB().WithContext(ctx).
		Scopes(database.OrderBy("created_at", false)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	users := make([]*biz.User, 0, len(pos))
	for i := range pos {
		users = append(users, pos[i].toDomain())
	}
	return users, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	result := r.db.GetDB().WithContext(ctx).
		Model(&UserPO{}).
		Where("email = ?", email).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, email string) error {
	return r.db.GetDB().WithContext(ctx).
		Where("email = ?", email).
		Delete(&UserPO{}).Error
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	return database.Count(ctx, r.db.GetDB(), &UserPO{}, "1 = 1")
}
