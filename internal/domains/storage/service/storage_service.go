package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/internal/domains/storage/repository"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/internal/shared/utils"
	"github.com/google/uuid"
)

// minioRequiredFields - bắt buộc non-empty khi storage_type = MINIO
var minioRequiredFields = []string{"bucket_name", "endpoint", "access_key", "secret_key"}

type storageService struct {
	repo    repository.RepositoryInterface
	factory *storage.Factory
}

// NewStorageService - Constructor with DI
func NewStorageService(repo repository.RepositoryInterface, factory *storage.Factory) ServiceInterface {
	return &storageService{
		repo:    repo,
		factory: factory,
	}
}

func (s *storageService) Create(ctx context.Context, userID uuid.UUID, req *model.StorageCreateRequest) (*model.StorageConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidStorageConfig(err.Error())
	}
	if err := validateConfigShape(req.StorageType, req.Config); err != nil {
		return nil, err
	}

	id, err := utils.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate storage config id: %w", err)
	}

	cfg := &model.StorageConfig{
		ID:          id,
		UserID:      userID,
		StorageType: req.StorageType,
		Config:      req.Config,
		IsDefault:   req.IsDefault,
	}

	created, err := s.repo.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return created.ToResponse(), nil
}

func (s *storageService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfigResponse, error) {
	cfg, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return cfg.ToResponse(), nil
}

func (s *storageService) List(ctx context.Context, userID uuid.UUID) (*model.ListStorageResponse, error) {
	configs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*model.StorageConfigResponse, len(configs))
	for i, cfg := range configs {
		items[i] = cfg.ToResponse()
	}

	return &model.ListStorageResponse{
		Total: len(items),
		Items: items,
	}, nil
}

func (s *storageService) Update(ctx context.Context, userID uuid.UUID, id string, req *model.StorageUpdateRequest) (*model.StorageConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewInvalidStorageConfig(err.Error())
	}

	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.StorageType != nil {
		existing.StorageType = *req.StorageType
	}
	if req.Config != nil {
		existing.Config = req.Config
	}

	// Sau merge, type + config vẫn phải khớp nhau
	if err := validateConfigShape(existing.StorageType, existing.Config); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	return updated.ToResponse(), nil
}

func (s *storageService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *storageService) SetDefault(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfigResponse, error) {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return nil, err
	}

	cfg, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return cfg.ToResponse(), nil
}

// ResolveBackend - lookup default config row của user, absence → filesystem
func (s *storageService) ResolveBackend(ctx context.Context, userID uuid.UUID) (storage.Backend, error) {
	cfg, err := s.repo.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return s.factory.Default(), nil
	}

	return s.factory.CreateBackend(ctx, cfg.StorageType, cfg.Config)
}

// validateConfigShape - reject sớm ở API layer thay vì để ingestion fail muộn
func validateConfigShape(storageType string, config map[string]interface{}) error {
	switch storageType {
	case model.TypeFileSystem:
		// Filesystem không cần config key nào
		return nil

	case model.TypeMinIO:
		missing := []string{}
		for _, field := range minioRequiredFields {
			value, ok := config[field].(string)
			if !ok || value == "" {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			return model.NewInvalidStorageConfig(
				fmt.Sprintf("MINIO requires fields: %s", strings.Join(missing, ", ")))
		}
		if secure, ok := config["secure"]; ok {
			if _, isBool := secure.(bool); !isBool {
				return model.NewInvalidStorageConfig("secure must be a boolean")
			}
		}
		return nil

	default:
		return model.NewInvalidStorageType(storageType)
	}
}
