package service

import (
	"github.com/pdfvault/pdfvault-backend/internal/file/biz"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/sizefmt"
)

// UploadResult mirrors the ingestion outcome for the client
type UploadResult struct {
	Status   string `json:"status"` // success, duplicate, error
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ListFilesRequest carries pagination parameters
type ListFilesRequest struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=5"`
}

// FileResponse is the public view of a stored file
type FileResponse struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	UploadDate string `json:"upload_date"`
	FileSize   string `json:"file_size"`
	SizeBytes  int64  `json:"size_bytes"`
	IsGlobal   bool   `json:"is_global"`
	UserEmail  string `json:"user_email,omitempty"`
}

// ListFilesResponse is a paginated file listing
type ListFilesResponse struct {
	Files    []*FileResponse `json:"files"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// SetGlobalRequest toggles a file's visibility
type SetGlobalRequest struct {
	IsGlobal *bool `json:"is_global" binding:"required"`
}

func toFileResponse(record *biz.FileRecord, withOwner bool) *FileResponse {
	resp := &FileResponse{
		ID:         record.ID,
		Filename:   record.Filename,
		UploadDate: record.UploadedAt.Format("2006-01-02 15:04:05"),
		FileSize:   sizefmt.Format(record.SizeBytes),
		SizeBytes:  record.SizeBytes,
		IsGlobal:   record.IsGlobal,
	}
	if withOwner {
		resp.UserEmail = record.OwnerEmail
	}
	return resp
}

func toFileResponseList(records []*biz.FileRecord, withOwner bool) []*FileResponse {
	out := make([]*FileResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toFileResponse(record, withOwner))
	}
	return out
}
