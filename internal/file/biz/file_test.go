package biz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pdfvault/pdfvault-backend/internal/file/storage"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFileRepo struct {
	nextID  int64
	records map[int64]*FileRecord

	failNextCreate bool
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{nextID: 1, records: make(map[int64]*FileRecord)}
}

func (r *fakeFileRepo) Create(ctx context.Context, record *FileRecord) error {
	if r.failNextCreate {
		r.failNextCreate = false
		return errors.New("simulated insert failure")
	}
	for _, existing := range r.records {
		if existing.OwnerEmail == record.OwnerEmail && existing.Filename == record.Filename {
			return ErrDuplicateName
		}
	}
	record.ID = r.nextID
	r.nextID++
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id int64) (*FileRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, ErrFileNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *fakeFileRepo) GetByOwnerAndName(ctx context.Context, owner, name string) (*FileRecord, error) {
	for _, record := range r.records {
		if record.OwnerEmail == owner && record.Filename == name {
			clone := *record
			return &clone, nil
		}
	}
	return nil, ErrFileNotFound
}

func (r *fakeFileRepo) byOwner(owner string) []*FileRecord {
	var out []*FileRecord
	for _, record := range r.records {
		if record.OwnerEmail == owner {
			clone := *record
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

func (r *fakeFileRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*FileRecord, int64, error) {
	all := r.byOwner(owner)
	return all, int64(len(all)), nil
}

func (r *fakeFileRepo) ListGlobal(ctx context.Context, page, pageSize int) ([]*FileRecord, int64, error) {
	var out []*FileRecord
	for _, record := range r.records {
		if record.IsGlobal {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeFileRepo) SearchByOwner(ctx context.Context, owner, query string) ([]*FileRecord, error) {
	var out []*FileRecord
	for _, record := range r.byOwner(owner) {
		if strings.Contains(strings.ToLower(record.Filename), strings.ToLower(query)) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) ListAllByOwner(ctx context.Context, owner string) ([]*FileRecord, error) {
	return r.byOwner(owner), nil
}

func (r *fakeFileRepo) SetGlobal(ctx context.Context, id int64, value bool) error {
	record, ok := r.records[id]
	if !ok {
		return ErrFileNotFound
	}
	record.IsGlobal = value
	return nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.records[id]; !ok {
		return ErrFileNotFound
	}
	delete(r.records, id)
	return nil
}

func newTestUseCase(t *testing.T) (*FileUseCase, *fakeFileRepo, *storage.LocalStore) {
	t.Helper()

	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)

	base := t.TempDir()
	store, err := storage.NewLocalStore(filepath.Join(base, "uploads"), filepath.Join(base, "tmp"), log)
	require.NoError(t, err)

	repo := newFakeFileRepo()
	return NewFileUseCase(repo, store, log), repo, store
}

func writeTempUpload(t *testing.T, store *storage.LocalStore, content string) string {
	t.Helper()
	path := filepath.Join(store.TempDir(), "upload-"+t.Name()+"-"+content[:min(8, len(content))])
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestIngestStoresFileAndRecord(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	temp := writeTempUpload(t, store, "pdf-content-1")
	record, err := uc.Ingest(ctx, "alice@example.com", "report.pdf", temp, ActionDefault)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", record.Filename)
	assert.Equal(t, int64(len("pdf-content-1")), record.SizeBytes)
	assert.True(t, store.Exists(record.FilePath))
	assert.NoFileExists(t, temp)
	assert.Len(t, repo.records, 1)
}

func TestIngestMissingTempFile(t *testing.T) {
	uc, _, store := newTestUseCase(t)

	_, err := uc.Ingest(context.Background(), "alice@example.com", "report.pdf",
		filepath.Join(store.TempDir(), "does-not-exist"), ActionDefault)
	assert.ErrorIs(t, err, ErrTempMissing)
}

func TestIngestDuplicateLeavesOriginalIntact(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	first, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "original"), ActionDefault)
	require.NoError(t, err)

	dup := writeTempUpload(t, store, "new-bytes")
	_, err = uc.Ingest(ctx, "alice@example.com", "report.pdf", dup, ActionDefault)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Original record and file untouched, temp file still the caller's
	unchanged, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.SizeBytes, unchanged.SizeBytes)
	content, err := os.ReadFile(first.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
	assert.FileExists(t, dup)
}

func TestIngestInvalidAction(t *testing.T) {
	uc, _, store := newTestUseCase(t)

	_, err := uc.Ingest(context.Background(), "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "content"), CollisionAction("merge"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestIngestReplace(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	first, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "old-content"), ActionDefault)
	require.NoError(t, err)

	replaced, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "brand-new-content"), ActionReplace)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", replaced.Filename)
	assert.Equal(t, int64(len("brand-new-content")), replaced.SizeBytes)
	assert.True(t, replaced.UploadedAt.After(first.UploadedAt) || replaced.UploadedAt.Equal(first.UploadedAt))

	// Exactly one record for (owner, name)
	assert.Len(t, repo.records, 1)
	content, err := os.ReadFile(replaced.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "brand-new-content", string(content))
}

func TestIngestKeepBothProbesNames(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "version-a"), ActionDefault)
	require.NoError(t, err)

	second, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "version-b"), ActionKeepBoth)
	require.NoError(t, err)
	assert.Equal(t, "report (1).pdf", second.Filename)

	third, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "version-c"), ActionKeepBoth)
	require.NoError(t, err)
	assert.Equal(t, "report (2).pdf", third.Filename)

	assert.Len(t, repo.records, 3)
	for _, record := range repo.records {
		assert.True(t, store.Exists(record.FilePath), record.Filename)
	}
}

func TestIngestKeepBothSkipsDiskOnlyNames(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "version-a"), ActionDefault)
	require.NoError(t, err)

	// A stray file occupies "report (1).pdf" on disk with no record;
	// the name search must skip it and must not clobber it.
	strayPath := store.PathFor("alice@example.com", "report (1).pdf")
	require.NoError(t, os.WriteFile(strayPath, []byte("stray-bytes"), 0o644))

	second, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "version-b"), ActionKeepBoth)
	require.NoError(t, err)
	assert.Equal(t, "report (2).pdf", second.Filename)

	stray, err := os.ReadFile(strayPath)
	require.NoError(t, err)
	assert.Equal(t, "stray-bytes", string(stray))
	assert.Len(t, repo.records, 2)
}

func TestIngestIsolationAcrossOwners(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	a, err := uc.Ingest(ctx, "alice@example.com", "x.pdf",
		writeTempUpload(t, store, "alice-bytes"), ActionDefault)
	require.NoError(t, err)

	b, err := uc.Ingest(ctx, "bob@example.com", "x.pdf",
		writeTempUpload(t, store, "bobs-bytes"), ActionDefault)
	require.NoError(t, err)

	assert.NotEqual(t, a.FilePath, b.FilePath)
	assert.Len(t, repo.records, 2)

	require.NoError(t, uc.Delete(ctx, a.ID, "alice@example.com"))
	assert.NoFileExists(t, a.FilePath)
	assert.True(t, store.Exists(b.FilePath))
}

func TestIngestCompensatesFailedInsert(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	repo.failNextCreate = true
	temp := writeTempUpload(t, store, "doomed-content")
	finalPath := store.PathFor("alice@example.com", "report.pdf")

	_, err := uc.Ingest(ctx, "alice@example.com", "report.pdf", temp, ActionDefault)
	require.Error(t, err)

	assert.NoFileExists(t, finalPath)
	assert.Empty(t, repo.records)
}

func TestVisibilityRules(t *testing.T) {
	uc, _, store := newTestUseCase(t)
	ctx := context.Background()

	record, err := uc.Ingest(ctx, "alice@example.com", "private.pdf",
		writeTempUpload(t, store, "secret-bytes"), ActionDefault)
	require.NoError(t, err)

	// Private: owner only, others see not-found
	_, err = uc.GetVisible(ctx, record.ID, "alice@example.com")
	require.NoError(t, err)
	_, err = uc.GetVisible(ctx, record.ID, "bob@example.com")
	assert.ErrorIs(t, err, ErrFileNotFound)

	// Non-owner cannot toggle
	err = uc.SetGlobal(ctx, record.ID, "bob@example.com", true)
	assert.ErrorIs(t, err, ErrAccessDenied)
	got, err := uc.GetVisible(ctx, record.ID, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, got.IsGlobal)

	// Owner makes it global, now visible to anyone
	require.NoError(t, uc.SetGlobal(ctx, record.ID, "alice@example.com", true))
	shared, err := uc.GetVisible(ctx, record.ID, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, shared.IsGlobal)
}

func TestDeleteDeniedForNonOwner(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	record, err := uc.Ingest(ctx, "alice@example.com", "report.pdf",
		writeTempUpload(t, store, "some-bytes"), ActionDefault)
	require.NoError(t, err)

	err = uc.Delete(ctx, record.ID, "bob@example.com")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Len(t, repo.records, 1)
}

func TestPurgeOwner(t *testing.T) {
	uc, repo, store := newTestUseCase(t)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := uc.Ingest(ctx, "alice@example.com", name,
			writeTempUpload(t, store, "content-"+name), ActionDefault)
		require.NoError(t, err)
	}
	keep, err := uc.Ingest(ctx, "bob@example.com", "keep.pdf",
		writeTempUpload(t, store, "bob-content"), ActionDefault)
	require.NoError(t, err)

	n, err := uc.PurgeOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, repo.records, 1)
	assert.NoDirExists(t, store.OwnerDir("alice@example.com"))
	assert.True(t, store.Exists(keep.FilePath))
}
