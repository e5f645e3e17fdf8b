package data

import (
	"context"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/file/biz"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FilePO is the persistence object for the files table. The composite
// unique index on (owner_email, filename) is the backstop for the
// collision check in the ingestion pipeline.
type FilePO struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	OwnerEmail string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_files_owner_filename;index:idx_files_owner"`
	Filename   string    `gorm:"type:varchar(512);not null;uniqueIndex:idx_files_owner_filename"`
	FilePath   string    `gorm:"type:varchar(1024);not null"`
	UploadedAt time.Time `gorm:"not null;index"`
	SizeBytes  int64     `gorm:"not null"`
	IsGlobal   bool      `gorm:"not null;default:false;index"`
}

// TableName returns the table name
func (FilePO) TableName() string {
	return "files"
}

func (po *FilePO) toDomain() *biz.FileRecord {
	return &biz.FileRecord{
		ID:         po.ID,
		OwnerEmail: po.OwnerEmail,
		Filename:   po.Filename,
		FilePath:   po.FilePath,
		UploadedAt: po.UploadedAt,
		SizeBytes:  po.SizeBytes,
		IsGlobal:   po.IsGlobal,
	}
}

func toPO(record *biz.FileRecord) *FilePO {
	return &FilePO{
		ID:         record.ID,
		OwnerEmail: record.OwnerEmail,
		Filename:   record.Filename,
		FilePath:   record.FilePath,
		UploadedAt: record.UploadedAt,
		SizeBytes:  record.SizeBytes,
		IsGlobal:   record.IsGlobal,
	}
}

func toDomainList(pos []FilePO) []*biz.FileRecord {
	records := make([]*biz.FileRecord, 0, len(pos))
	for i := range pos {
		records = append(records, pos[i].toDomain())
	}
	return records
}

// fileRepo implements biz.FileRepo backed by PostgreSQL
type fileRepo struct {
	db     *database.DB
	logger *logger.Logger
}

// NewFileRepo creates a file metadata repository
func NewFileRepo(db *database.DB, log *logger.Logger) biz.FileRepo {
	return &fileRepo{
		db:     db,
		logger: log,
	}
}

func (r *fileRepo) Create(ctx context.Context, record *biz.FileRecord) error {
	po := toPO(record)

	err := r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Create(po).Error
	})
	if err != nil {
		if database.IsDuplicateKeyError(err) {
			return biz.ErrDuplicateName
		}
		r.logger.WithContext(ctx).Error("failed to insert file record",
			zap.String("owner", record.OwnerEmail),
			zap.String("filename", record.Filename),
			zap.Error(err))
		return err
	}

	record.ID = po.ID
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, id int64) (*biz.FileRecord, error) {
	var po FilePO
	err := r.db.GetDB().WithContext(ctx).First(&po, id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrFileNotFound
		}
		return nil, err
	}
	return po.toDomain(), nil
}

func (r *fileRepo) GetByOwnerAndName(ctx context.Context, owner, name string) (*biz.FileRecord, error) {
	var po FilePO
	err := r.db.GetDB().WithContext(ctx).
		Where("owner_email = ? AND filename = ?", owner, name).
		First(&po).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, biz.ErrFileNotFound
		}
		return nil, err
	}
	return po.toDomain(), nil
}

func (r *fileRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*biz.FileRecord, int64, error) {
	total, err := database.Count(ctx, r.db.GetDB(), &FilePO{}, "owner_email = ?", owner)
	if err != nil {
		return nil, 0, err
	}

	var pos []FilePO
	err = r.db.GetDB().WithContext(ctx).
		Where("owner_email = ?", owner).
		Scopes(database.Paginate(page, pageSize), database.OrderBy("uploaded_at", true)).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}

	return toDomainList(pos), total, nil
}

func (r *fileRepo) ListGlobal(ctx context.Context, page, pageSize int) ([]*biz.FileRecord, int64, error) {
	total, err := database.Count(ctx, r.db.GetDB(), &FilePO{}, "is_global = ?", true)
	if err != nil {
		return nil, 0, err
	}

	var pos []FilePO
	err = r.db.GetDB().WithContext(ctx).
		Where("is_global = ?", true).
		Scopes(database.Paginate(page, pageSize), database.OrderBy("uploaded_at", true)).
		Find(&pos).Error
	if err != nil {
		return nil, 0, err
	}

	return toDomainList(pos), total, nil
}

func (r *fileRepo) SearchByOwner(ctx context.Context, owner, query string) ([]*biz.FileRecord, error) {
	var pos []FilePO
	err := r.db.GetDB().WithContext(ctx).
		Where("owner_email = ? AND filename ILIKE ?", owner, "%"+query+"%").
		Scopes(database.OrderBy("uploaded_at", true)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(pos), nil
}

func (r *fileRepo) ListAllByOwner(ctx context.Context, owner string) ([]*biz.FileRecord, error) {
	var pos []FilePO
	err := r.db.GetDB().WithContext(ctx).
		Where("owner_email = ?", owner).
		Scopes(database.OrderBy("uploaded_at", true)).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(pos), nil
}

func (r *fileRepo) SetGlobal(ctx context.Context, id int64, value bool) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		result := tx.Model(&FilePO{}).
			Where("id = ?", id).
			Update("is_global", value)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return biz.ErrFileNotFound
		}
		return nil
	})
}

func (r *fileRepo) Delete(ctx context.Context, id int64) error {
	return r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		result := tx.Delete(&FilePO{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return biz.ErrFileNotFound
		}
		return nil
	})
}
