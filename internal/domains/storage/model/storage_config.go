package model

import (
	"time"

	"github.com/google/uuid"
)

// StorageType tags - closed set, factory ở infrastructure layer resolve theo tag này
const (
	TypeFileSystem = "FILE_SYSTEM"
	TypeMinIO      = "MINIO"
)

// ValidStorageType kiểm tra type tag thuộc closed set
func ValidStorageType(t string) bool {
	return t == TypeFileSystem || t == TypeMinIO
}

// StorageConfig - per-user storage backend configuration
type StorageConfig struct {
	ID          string                 `json:"id" db:"id"`
	UserID      uuid.UUID              `json:"-" db:"user_id"`
	StorageType string                 `json:"storage_type" db:"storage_type"`
	Config      map[string]interface{} `json:"config" db:"config"`
	IsDefault   bool                   `json:"is_default" db:"is_default"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at" db:"updated_at"`
}

// ToResponse converts StorageConfig to StorageConfigResponse
func (s *StorageConfig) ToResponse() *StorageConfigResponse {
	return &StorageConfigResponse{
		ID:          s.ID,
		StorageType: s.StorageType,
		Config:      s.Config,
		IsDefault:   s.IsDefault,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
