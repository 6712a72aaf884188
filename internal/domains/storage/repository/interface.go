package repository

import (
	"context"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/google/uuid"
)

// RepositoryInterface - Định nghĩa data access methods
type RepositoryInterface interface {
	Create(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfig, error)
	// GetDefaultByUser - (nil, nil) khi user chưa có default config
	GetDefaultByUser(ctx context.Context, userID uuid.UUID) (*model.StorageConfig, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.StorageConfig, error)
	Update(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	// SetDefault - atomically unset mọi default khác của user rồi set config này
	SetDefault(ctx context.Context, userID uuid.UUID, id string) error
}
