package model

import (
	"errors"
	"fmt"
	"net/http"
)

// StorageConfigError định nghĩa base error cho storage domain
type StorageConfigError struct {
	Code    string
	Message string
	Err     error
}

// Error implements error interface
func (e *StorageConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap allows error wrapping compatibility
func (e *StorageConfigError) Unwrap() error {
	return e.Err
}

// ============================================
// ERROR FACTORY FUNCTIONS
// ============================================

// NewStorageNotFound - config không tồn tại hoặc không thuộc user
func NewStorageNotFound() *StorageConfigError {
	return &StorageConfigError{
		Code:    "STORAGE_NOT_FOUND",
		Message: "Storage not found.",
	}
}

// NewInvalidStorageType - type tag ngoài closed set
func NewInvalidStorageType(storageType string) *StorageConfigError {
	return &StorageConfigError{
		Code:    "INVALID_STORAGE_TYPE",
		Message: fmt.Sprintf("Invalid storage type: %s (expected: FILE_SYSTEM, MINIO)", storageType),
	}
}

// NewInvalidStorageConfig - config object thiếu/sai field cho type
func NewInvalidStorageConfig(detail string) *StorageConfigError {
	return &StorageConfigError{
		Code:    "INVALID_STORAGE_CONFIG",
		Message: fmt.Sprintf("Invalid storage configuration: %s", detail),
	}
}

// NewStorageQueryError - lỗi persistence
func NewStorageQueryError(err error) *StorageConfigError {
	return &StorageConfigError{
		Code:    "STORAGE_QUERY_ERROR",
		Message: "Failed to access storage configuration",
		Err:     err,
	}
}

// ============================================
// ERROR CHECKING FUNCTIONS
// ============================================

// IsStorageNotFound kiểm tra có phải "not found" error
func IsStorageNotFound(err error) bool {
	var cfgErr *StorageConfigError
	return errors.As(err, &cfgErr) && cfgErr.Code == "STORAGE_NOT_FOUND"
}

// GetErrorResponse map domain error sang HTTP response parts
func GetErrorResponse(err error) (statusCode int, code string, message string) {
	var cfgErr *StorageConfigError
	if !errors.As(err, &cfgErr) {
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error"
	}

	switch cfgErr.Code {
	case "STORAGE_NOT_FOUND":
		return http.StatusNotFound, cfgErr.Code, cfgErr.Message
	case "INVALID_STORAGE_TYPE", "INVALID_STORAGE_CONFIG":
		return http.StatusBadRequest, cfgErr.Code, cfgErr.Message
	default:
		return http.StatusInternalServerError, cfgErr.Code, cfgErr.Message
	}
}
