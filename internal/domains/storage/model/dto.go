package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =====================================================
// CREATE STORAGE REQUEST
// =====================================================

type StorageCreateRequest struct {
	StorageType string                 `json:"storage_type" binding:"required"`
	Config      map[string]interface{} `json:"config"`
	IsDefault   bool                   `json:"is_default"`
}

// Validate validates StorageCreateRequest
func (req StorageCreateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.StorageType, validation.Required, validation.In(TypeFileSystem, TypeMinIO)),
	)
}

// =====================================================
// UPDATE STORAGE REQUEST
// =====================================================

// StorageUpdateRequest - nil field = giữ nguyên. Default flag đổi qua
// endpoint set-default riêng để giữ exclusivity atomic.
type StorageUpdateRequest struct {
	StorageType *string                `json:"storage_type,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

// Validate validates StorageUpdateRequest
func (req StorageUpdateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.StorageType, validation.In(TypeFileSystem, TypeMinIO)),
	)
}

// =====================================================
// RESPONSES
// =====================================================

type StorageConfigResponse struct {
	ID          string                 `json:"id"`
	StorageType string                 `json:"storage_type"`
	Config      map[string]interface{} `json:"config"`
	IsDefault   bool                   `json:"is_default"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type ListStorageResponse struct {
	Total int                      `json:"total"`
	Items []*StorageConfigResponse `json:"items"`
}
