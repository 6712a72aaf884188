package service

import (
	"context"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/google/uuid"
)

// ServiceInterface - business logic cho per-user storage configurations
type ServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req *model.StorageCreateRequest) (*model.StorageConfigResponse, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfigResponse, error)
	List(ctx context.Context, userID uuid.UUID) (*model.ListStorageResponse, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req *model.StorageUpdateRequest) (*model.StorageConfigResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	SetDefault(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfigResponse, error)

	// ResolveBackend - default config của user → concrete backend.
	// User chưa có config nào → filesystem backend.
	ResolveBackend(ctx context.Context, userID uuid.UUID) (storage.Backend, error)
}
