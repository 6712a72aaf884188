package storage

import (
	"errors"
	"fmt"
)

// StorageError là custom error type cho storage backend operations
type StorageError struct {
	Code    string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeBackendNotFound      = "NOT_FOUND"
	CodeBackendNotConfigured = "NOT_CONFIGURED"
	CodeBackendUnavailable   = "UNAVAILABLE"
)

// Predefined errors
var (
	// ErrBackendNotFound khi storage_type không nằm trong registry
	ErrBackendNotFound = &StorageError{
		Code:    CodeBackendNotFound,
		Message: "Specified storage backend does not exist.",
	}

	// ErrBackendNotConfigured khi config thiếu required fields
	ErrBackendNotConfigured = &StorageError{
		Code:    CodeBackendNotConfigured,
		Message: "No valid configuration found for storage backend.",
	}
)

// NewBackendUnavailable wraps connection failures khi khởi tạo backend
func NewBackendUnavailable(err error) *StorageError {
	return &StorageError{
		Code:    CodeBackendUnavailable,
		Message: "Storage backend is not reachable.",
		Err:     err,
	}
}

// ErrObjectNotFound - Fetch miss: object không tồn tại trong backend.
// Check bằng errors.Is, backends wrap thêm object key vào message.
var ErrObjectNotFound = errors.New("object not found in storage")
