package service

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pdfvault/pdfvault-backend/internal/auth/middleware"
	"github.com/pdfvault/pdfvault-backend/internal/file/biz"
	"github.com/pdfvault/pdfvault-backend/internal/file/storage"
	apperrors "github.com/pdfvault/pdfvault-backend/internal/pkg/errors"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// FileService exposes the file pipeline over HTTP
type FileService struct {
	uc          *biz.FileUseCase
	store       *storage.LocalStore
	maxFileSize int64
	logger      *logger.Logger
}

// NewFileService creates a FileService
func NewFileService(uc *biz.FileUseCase, store *storage.LocalStore, maxFileSize int64, log *logger.Logger) *FileService {
	return &FileService{
		uc:          uc,
		store:       store,
		maxFileSize: maxFileSize,
		logger:      log,
	}
}

// validateFilename rejects names that could escape the owner namespace
func validateFilename(name string) error {
	if name == "" {
		return apperrors.New(apperrors.ErrFileInvalidName, "filename is empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return apperrors.New(apperrors.ErrFileInvalidName)
	}
	return nil
}

// Upload handles POST /api/v1/files
//
// Multipart form: "file" holds the PDF; "action" selects the collision
// policy (default, replace, keep_both).
func (s *FileService) Upload(c *gin.Context) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "no file provided")
		return
	}

	filename := filepath.Base(header.Filename)
	if err := validateFilename(filename); err != nil {
		response.HandleError(c, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		response.ErrorWithCode(c, apperrors.ErrFileTypeNotPDF)
		return
	}
	if s.maxFileSize > 0 && header.Size > s.maxFileSize {
		response.ErrorWithCode(c, apperrors.ErrFileTooLarge)
		return
	}

	action := biz.CollisionAction(c.DefaultPostForm("action", string(biz.ActionDefault)))

	// Stage the upload in a private temp directory; the orchestrator
	// consumes the file on success, we sweep whatever remains.
	tempDir := filepath.Join(s.store.TempDir(), uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		s.logger.WithContext(c.Request.Context()).Error("failed to create temp dir", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrFileStorageFailed)
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filename)
	if err := c.SaveUploadedFile(header, tempPath); err != nil {
		s.logger.WithContext(c.Request.Context()).Error("failed to save upload", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrFileStorageFailed)
		return
	}

	record, err := s.uc.Ingest(c.Request.Context(), email, filename, tempPath, action)
	if err != nil {
		switch {
		case errors.Is(err, biz.ErrDuplicateName):
			c.JSON(http.StatusConflict, response.Response{
				Code:    apperrors.ErrFileDuplicateName,
				Message: apperrors.GetMessage(apperrors.ErrFileDuplicateName),
				Data:    &UploadResult{Status: "duplicate", Filename: filename},
			})
		case errors.Is(err, biz.ErrInvalidAction):
			response.ErrorWithCode(c, apperrors.ErrFileInvalidAction, string(action))
		case errors.Is(err, biz.ErrTempMissing):
			response.ErrorWithCode(c, apperrors.ErrInvalidParams, "uploaded file is missing")
		default:
			response.ErrorWithCode(c, apperrors.ErrFileStorageFailed, err.Error())
		}
		return
	}

	response.Created(c, &UploadResult{Status: "success", Filename: record.Filename})
}

// List handles GET /api/v1/files
func (s *FileService) List(c *gin.Context) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return
	}

	var req ListFilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	records, total, err := s.uc.ListByOwner(c.Request.Context(), email, req.Page, req.PageSize)
	if err != nil {
		response.HandleError(c, mapFileError(err))
		return
	}

	response.Success(c, &ListFilesResponse{
		Files:    toFileResponseList(records, false),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// ListGlobal handles GET /api/v1/files/global
func (s *FileService) ListGlobal(c *gin.Context) {
	var req ListFilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	records, total, err := s.uc.ListGlobal(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		response.HandleError(c, mapFileError(err))
		return
	}

	response.Success(c, &ListFilesResponse{
		Files:    toFileResponseList(records, true),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// Search handles GET /api/v1/files/search?q=
func (s *FileService) Search(c *gin.Context) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "query is empty")
		return
	}

	records, err := s.uc.Search(c.Request.Context(), email, query)
	if err != nil {
		response.HandleError(c, mapFileError(err))
		return
	}

	response.Success(c, gin.H{
		"files": toFileResponseList(records, false),
		"total": len(records),
	})
}

// resolveVisible fetches a record the requester may read and verifies
// the bytes are still on disk
func (s *FileService) resolveVisible(c *gin.Context) (*biz.FileRecord, bool) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return nil, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "invalid file id")
		return nil, false
	}

	record, err := s.uc.GetVisible(c.Request.Context(), id, email)
	if err != nil {
		response.HandleError(c, mapFileError(err))
		return nil, false
	}

	if !s.store.Exists(record.FilePath) {
		// Orphaned row: bytes vanished externally. Report, never auto-delete.
		s.logger.WithContext(c.Request.Context()).Warn("file record has no backing file",
			zap.Int64("id", record.ID),
			zap.String("path", record.FilePath))
		response.ErrorWithCode(c, apperrors.ErrFileMissingOnDisk)
		return nil, false
	}

	return record, true
}

// Download handles GET /api/v1/files/:id/download
func (s *FileService) Download(c *gin.Context) {
	record, ok := s.resolveVisible(c)
	if !ok {
		return
	}
	c.FileAttachment(record.FilePath, record.Filename)
}

// Preview handles GET /api/v1/files/:id/preview
func (s *FileService) Preview(c *gin.Context) {
	record, ok := s.resolveVisible(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+record.Filename+`"`)
	c.File(record.FilePath)
}

// Delete handles DELETE /api/v1/files/:id
func (s *FileService) Delete(c *gin.Context) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "invalid file id")
		return
	}

	if err := s.uc.Delete(c.Request.Context(), id, email); err != nil {
		response.HandleError(c, mapFileError(err))
		return
	}

	response.SuccessWithMessage(c, "file deleted", nil)
}

// SetGlobal handles PUT /api/v1/files/:id/global
func (s *FileService) SetGlobal(c *gin.Context) {
	email, ok := middleware.GetEmail(c)
	if !ok {
		response.ErrorWithCode(c, apperrors.ErrUnauthorized)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "invalid file id")
		return
	}

	var req SetGlobalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	if err := s.uc.SetGlobal(c.Request.Context(), id, email, *req.IsGlobal); err != nil {
		response.HandleError(c, mapFileError(err))
		return
	}

	response.Success(c, gin.H{"id": id, "is_global": *req.IsGlobal})
}

// mapFileError translates biz sentinel errors to coded AppErrors
func mapFileError(err error) error {
	switch {
	case errors.Is(err, biz.ErrFileNotFound):
		return apperrors.New(apperrors.ErrFileNotFound)
	case errors.Is(err, biz.ErrAccessDenied):
		return apperrors.New(apperrors.ErrFileAccessDenied)
	case errors.Is(err, biz.ErrDuplicateName):
		return apperrors.New(apperrors.ErrFileDuplicateName)
	case errors.Is(err, biz.ErrInvalidAction):
		return apperrors.New(apperrors.ErrFileInvalidAction)
	case errors.Is(err, biz.ErrStorageFailed):
		return apperrors.New(apperrors.ErrFileStorageFailed)
	default:
		return apperrors.Wrap(err, apperrors.ErrInternalServer)
	}
}
