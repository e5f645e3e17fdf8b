package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007

	// Auth errors (2000-2999)
	ErrAuthInvalidCredentials = 2000
	ErrAuthUserNotFound       = 2001
	ErrAuthEmailExists        = 2002
	ErrAuthInvalidToken       = 2003
	ErrAuthWeakPassword       = 2004
	ErrAuthInvalidEmail       = 2005
	ErrAuthAdminNotConfigured = 2006

	// File errors (3000-3999)
	ErrFileNotFound      = 3000
	ErrFileAccessDenied  = 3001
	ErrFileDuplicateName = 3002
	ErrFileInvalidAction = 3003
	ErrFileInvalidName   = 3004
	ErrFileTypeNotPDF    = 3005
	ErrFileTooLarge      = 3006
	ErrFileStorageFailed = 3007
	ErrFileMissingOnDisk = 3008
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},

	// Auth errors
	ErrAuthInvalidCredentials: {ErrAuthInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	ErrAuthUserNotFound:       {ErrAuthUserNotFound, http.StatusNotFound, "User not found"},
	ErrAuthEmailExists:        {ErrAuthEmailExists, http.StatusConflict, "Email already exists"},
	ErrAuthInvalidToken:       {ErrAuthInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	ErrAuthWeakPassword:       {ErrAuthWeakPassword, http.StatusBadRequest, "Password does not meet requirements"},
	ErrAuthInvalidEmail:       {ErrAuthInvalidEmail, http.StatusBadRequest, "Invalid email format"},
	ErrAuthAdminNotConfigured: {ErrAuthAdminNotConfigured, http.StatusInternalServerError, "Admin functionality is not configured"},

	// File errors
	ErrFileNotFound:      {ErrFileNotFound, http.StatusNotFound, "File not found or access denied"},
	ErrFileAccessDenied:  {ErrFileAccessDenied, http.StatusForbidden, "Access denied"},
	ErrFileDuplicateName: {ErrFileDuplicateName, http.StatusConflict, "A file with this name already exists"},
	ErrFileInvalidAction: {ErrFileInvalidAction, http.StatusBadRequest, "Invalid collision action"},
	ErrFileInvalidName:   {ErrFileInvalidName, http.StatusBadRequest, "Invalid characters in filename"},
	ErrFileTypeNotPDF:    {ErrFileTypeNotPDF, http.StatusBadRequest, "Only PDF files are allowed"},
	ErrFileTooLarge:      {ErrFileTooLarge, http.StatusBadRequest, "File size exceeds limit"},
	ErrFileStorageFailed: {ErrFileStorageFailed, http.StatusInternalServerError, "Storage operation failed"},
	ErrFileMissingOnDisk: {ErrFileMissingOnDisk, http.StatusNotFound, "File not found on server"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
