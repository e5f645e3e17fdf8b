package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pdfvault/pdfvault-backend/internal/file/biz"
	"github.com/pdfvault/pdfvault-backend/internal/file/storage"
	apperrors "github.com/pdfvault/pdfvault-backend/internal/pkg/errors"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFileRepo struct {
	nextID  int64
	records map[int64]*biz.FileRecord
}

func newStubFileRepo() *stubFileRepo {
	return &stubFileRepo{records: make(map[int64]*biz.FileRecord)}
}

func (r *stubFileRepo) Create(ctx context.Context, record *biz.FileRecord) error {
	for _, rec := range r.records {
		if rec.OwnerEmail == record.OwnerEmail && rec.Filename == record.Filename {
			return biz.ErrDuplicateName
		}
	}
	r.nextID++
	record.ID = r.nextID
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *stubFileRepo) GetByID(ctx context.Context, id int64) (*biz.FileRecord, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, biz.ErrFileNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *stubFileRepo) GetByOwnerAndName(ctx context.Context, owner, name string) (*biz.FileRecord, error) {
	for _, record := range r.records {
		if record.OwnerEmail == owner && record.Filename == name {
			clone := *record
			return &clone, nil
		}
	}
	return nil, biz.ErrFileNotFound
}

func (r *stubFileRepo) ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*biz.FileRecord, int64, error) {
	out, err := r.ListAllByOwner(ctx, owner)
	return out, int64(len(out)), err
}

func (r *stubFileRepo) ListGlobal(ctx context.Context, page, pageSize int) ([]*biz.FileRecord, int64, error) {
	var out []*biz.FileRecord
	for _, record := range r.records {
		if record.IsGlobal {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubFileRepo) SearchByOwner(ctx context.Context, owner, query string) ([]*biz.FileRecord, error) {
	var out []*biz.FileRecord
	for _, record := range r.records {
		if record.OwnerEmail == owner && strings.Contains(strings.ToLower(record.Filename), strings.ToLower(query)) {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubFileRepo) ListAllByOwner(ctx context.Context, owner string) ([]*biz.FileRecord, error) {
	var out []*biz.FileRecord
	for _, record := range r.records {
		if record.OwnerEmail == owner {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubFileRepo) SetGlobal(ctx context.Context, id int64, value bool) error {
	record, ok := r.records[id]
	if !ok {
		return biz.ErrFileNotFound
	}
	record.IsGlobal = value
	return nil
}

func (r *stubFileRepo) Delete(ctx context.Context, id int64) error {
	delete(r.records, id)
	return nil
}

func newTestRouter(t *testing.T, maxFileSize int64) (*gin.Engine, *stubFileRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)

	base := t.TempDir()
	store, err := storage.NewLocalStore(filepath.Join(base, "uploads"), filepath.Join(base, "tmp"), log)
	require.NoError(t, err)

	repo := newStubFileRepo()
	svc := NewFileService(biz.NewFileUseCase(repo, store, log), store, maxFileSize, log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("email", "alice@example.com")
	})
	r.POST("/files", svc.Upload)
	return r, repo
}

func multipartUpload(t *testing.T, filename, content, action string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if action != "" {
		require.NoError(t, writer.WriteField("action", action))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, filename, content, action string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	body, contentType := multipartUpload(t, filename, content, action)
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestValidateFilename(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"report.pdf", false},
		{"annual report (2).pdf", false},
		{"", true},
		{"../escape.pdf", true},
		{"..\\escape.pdf", true},
		{"dir/inner.pdf", true},
		{"..pdf", true},
	}

	for _, tc := range cases {
		err := validateFilename(tc.name)
		if tc.wantErr {
			assert.Error(t, err, "name %q", tc.name)
		} else {
			assert.NoError(t, err, "name %q", tc.name)
		}
	}
}

func TestUploadStoresPDF(t *testing.T) {
	r, repo := newTestRouter(t, 0)

	w, envelope := doUpload(t, r, "report.pdf", "%PDF-1.4 body", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, apperrors.Success, envelope.Code)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, "report.pdf", data["filename"])
	assert.Len(t, repo.records, 1)
}

func TestUploadDuplicateConflict(t *testing.T) {
	r, repo := newTestRouter(t, 0)

	w, _ := doUpload(t, r, "report.pdf", "first", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w, envelope := doUpload(t, r, "report.pdf", "second", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.ErrFileDuplicateName, envelope.Code)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "duplicate", data["status"])
	assert.Len(t, repo.records, 1)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	r, repo := newTestRouter(t, 0)

	w, envelope := doUpload(t, r, "notes.txt", "plain text", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrFileTypeNotPDF, envelope.Code)
	assert.Empty(t, repo.records)
}

func TestUploadRejectsTraversalName(t *testing.T) {
	r, repo := newTestRouter(t, 0)

	// Backslashes are not path separators here, so filepath.Base
	// leaves the name intact and validation must catch it.
	w, envelope := doUpload(t, r, "..\\evil.pdf", "%PDF-1.4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrFileInvalidName, envelope.Code)
	assert.Empty(t, repo.records)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	r, repo := newTestRouter(t, 16)

	w, envelope := doUpload(t, r, "big.pdf", strings.Repeat("x", 64), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrFileTooLarge, envelope.Code)
	assert.Empty(t, repo.records)
}

func TestUploadRejectsUnknownAction(t *testing.T) {
	r, repo := newTestRouter(t, 0)

	w, envelope := doUpload(t, r, "report.pdf", "%PDF-1.4", "rename")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrFileInvalidAction, envelope.Code)
	assert.Empty(t, repo.records)
}
