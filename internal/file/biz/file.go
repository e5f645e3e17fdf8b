package biz

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrFileNotFound  = errors.New("file not found or access denied")
	ErrAccessDenied  = errors.New("access denied")
	ErrTempMissing   = errors.New("uploaded file is missing or unreadable")
	ErrStorageFailed = errors.New("storage operation failed")
)

// FileRecord is the domain model for a stored file
type FileRecord struct {
	ID         int64
	OwnerEmail string
	Filename   string
	FilePath   string
	UploadedAt time.Time
	SizeBytes  int64
	IsGlobal   bool
}

// FileRepo abstracts file metadata persistence. All mutations run
// inside a transaction; the repo is the sole arbiter of name existence.
type FileRepo interface {
	Create(ctx context.Context, record *FileRecord) error
	GetByID(ctx context.Context, id int64) (*FileRecord, error)
	GetByOwnerAndName(ctx context.Context, owner, name string) (*FileRecord, error)
	ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*FileRecord, int64, error)
	ListGlobal(ctx context.Context, page, pageSize int) ([]*FileRecord, int64, error)
	SearchByOwner(ctx context.Context, owner, query string) ([]*FileRecord, error)
	ListAllByOwner(ctx context.Context, owner string) ([]*FileRecord, error)
	SetGlobal(ctx context.Context, id int64, value bool) error
	Delete(ctx context.Context, id int64) error
}

// BlobStore abstracts the physical file namespace
type BlobStore interface {
	PathFor(owner, filename string) string
	EnsureOwnerDir(owner string) error
	Relocate(src, dst string) error
	Remove(path string) error
	RemoveOwnerDir(owner string) error
	Exists(path string) bool
}

// FileUseCase implements the ingestion pipeline and file queries
type FileUseCase struct {
	repo   FileRepo
	store  BlobStore
	logger *logger.Logger

	// Serializes ingests per owner to close the gap between the
	// collision check and the insert. The unique index on
	// (owner_email, filename) is the backstop.
	mu         sync.Mutex
	ownerLocks map[string]*sync.Mutex
}

// NewFileUseCase creates a FileUseCase
func NewFileUseCase(repo FileRepo, store BlobStore, log *logger.Logger) *FileUseCase {
	return &FileUseCase{
		repo:       repo,
		store:      store,
		logger:     log,
		ownerLocks: make(map[string]*sync.Mutex),
	}
}

func (uc *FileUseCase) ownerLock(owner string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	lock, ok := uc.ownerLocks[owner]
	if !ok {
		lock = &sync.Mutex{}
		uc.ownerLocks[owner] = lock
	}
	return lock
}

// Ingest accepts an uploaded file sitting at tempPath and stores it in
// the owner's namespace under desiredName, applying the collision
// policy. On ErrDuplicateName the temp file is left untouched for the
// caller to clean up. The returned record carries the final name,
// which may differ from desiredName under keep_both.
func (uc *FileUseCase) Ingest(ctx context.Context, owner, desiredName, tempPath string, action CollisionAction) (*FileRecord, error) {
	info, err := os.Stat(tempPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrTempMissing
	}

	lock := uc.ownerLock(owner)
	lock.Lock()
	defer lock.Unlock()

	finalName, toReplace, err := uc.resolveName(ctx, owner, desiredName, action)
	if err != nil {
		return nil, err
	}

	replaced := false
	if toReplace != nil {
		// Old row first; file removal is best-effort
		if err := uc.repo.Delete(ctx, toReplace.ID); err != nil {
			return nil, err
		}
		if err := uc.store.Remove(toReplace.FilePath); err != nil {
			uc.logger.WithContext(ctx).Warn("failed to remove replaced file",
				zap.String("path", toReplace.FilePath),
				zap.Error(err))
		}
		replaced = true
	}

	finalPath := uc.store.PathFor(owner, finalName)
	if err := uc.store.EnsureOwnerDir(owner); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	if err := uc.store.Relocate(tempPath, finalPath); err != nil {
		uc.logger.WithContext(ctx).Error("relocation failed",
			zap.String("owner", owner),
			zap.String("filename", finalName),
			zap.Error(err))
		return nil, errors.Join(ErrStorageFailed, err)
	}

	size := info.Size()
	if moved, err := os.Stat(finalPath); err == nil {
		size = moved.Size()
	}

	record := &FileRecord{
		OwnerEmail: owner,
		Filename:   finalName,
		FilePath:   finalPath,
		UploadedAt: time.Now().UTC(),
		SizeBytes:  size,
	}

	if err := uc.repo.Create(ctx, record); err != nil {
		// Compensate: the moved file must not outlive a failed insert.
		// Skip when replacing, the original is already gone either way.
		if !replaced {
			if rmErr := uc.store.Remove(finalPath); rmErr != nil {
				uc.logger.WithContext(ctx).Error("compensating cleanup failed",
					zap.String("path", finalPath),
					zap.Error(rmErr))
			}
		}
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("file ingested",
		zap.String("owner", owner),
		zap.String("filename", finalName),
		zap.Int64("size_bytes", size),
		zap.String("action", string(action)))

	return record, nil
}

// ListByOwner returns the owner's files, newest first
func (uc *FileUseCase) ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*FileRecord, int64, error) {
	return uc.repo.ListByOwner(ctx, owner, page, pageSize)
}

// ListGlobal returns files shared with everyone, newest first
func (uc *FileUseCase) ListGlobal(ctx context.Context, page, pageSize int) ([]*FileRecord, int64, error) {
	return uc.repo.ListGlobal(ctx, page, pageSize)
}

// Search returns the owner's files whose name contains query,
// case-insensitive, newest first
func (uc *FileUseCase) Search(ctx context.Context, owner, query string) ([]*FileRecord, error) {
	return uc.repo.SearchByOwner(ctx, owner, query)
}

// GetVisible fetches a record enforcing the visibility rule: global
// records are readable by anyone, private ones only by their owner.
// Not-found and access-denied are indistinguishable.
func (uc *FileUseCase) GetVisible(ctx context.Context, id int64, requester string) (*FileRecord, error) {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrFileNotFound
	}
	if !record.IsGlobal && record.OwnerEmail != requester {
		return nil, ErrFileNotFound
	}
	return record, nil
}

// SetGlobal toggles visibility; only the owner may do so
func (uc *FileUseCase) SetGlobal(ctx context.Context, id int64, requester string, value bool) error {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return ErrFileNotFound
	}
	if record.OwnerEmail != requester {
		return ErrAccessDenied
	}
	return uc.repo.SetGlobal(ctx, id, value)
}

// Delete removes the record and its backing file, row first. A failure
// after the row delete leaves at most an orphaned file on disk.
func (uc *FileUseCase) Delete(ctx context.Context, id int64, requester string) error {
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return ErrFileNotFound
	}
	if record.OwnerEmail != requester {
		return ErrFileNotFound
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := uc.store.Remove(record.FilePath); err != nil {
		uc.logger.WithContext(ctx).Warn("failed to remove deleted file from disk",
			zap.String("path", record.FilePath),
			zap.Error(err))
	}

	uc.logger.WithContext(ctx).Info("file deleted",
		zap.Int64("id", id),
		zap.String("owner", requester),
		zap.String("filename", record.Filename))
	return nil
}

// PurgeOwner removes every record and file belonging to an owner.
// Used when an account is deleted.
func (uc *FileUseCase) PurgeOwner(ctx context.Context, owner string) (int, error) {
	records, err := uc.repo.ListAllByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}

	for _, record := range records {
		if err := uc.repo.Delete(ctx, record.ID); err != nil {
			return 0, err
		}
	}

	if err := uc.store.RemoveOwnerDir(owner); err != nil {
		uc.logger.WithContext(ctx).Warn("failed to remove owner directory",
			zap.String("owner", owner),
			zap.Error(err))
	}

	return len(records), nil
}
