package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/internal/shared/utils"
)

// fakeStorageRepo - in-memory rendition của RepositoryInterface
type fakeStorageRepo struct {
	configs map[string]*model.StorageConfig
}

func newFakeStorageRepo() *fakeStorageRepo {
	return &fakeStorageRepo{configs: make(map[string]*model.StorageConfig)}
}

func (r *fakeStorageRepo) Create(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error) {
	if cfg.IsDefault {
		r.clearDefault(cfg.UserID)
	}
	stored := *cfg
	r.configs[cfg.ID] = &stored
	return &stored, nil
}

func (r *fakeStorageRepo) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfig, error) {
	cfg, ok := r.configs[id]
	if !ok || cfg.UserID != userID {
		return nil, model.NewStorageNotFound()
	}
	return cfg, nil
}

func (r *fakeStorageRepo) GetDefaultByUser(ctx context.Context, userID uuid.UUID) (*model.StorageConfig, error) {
	for _, cfg := range r.configs {
		if cfg.UserID == userID && cfg.IsDefault {
			return cfg, nil
		}
	}
	return nil, nil
}

func (r *fakeStorageRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.StorageConfig, error) {
	var out []*model.StorageConfig
	for _, cfg := range r.configs {
		if cfg.UserID == userID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (r *fakeStorageRepo) Update(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error) {
	if _, ok := r.configs[cfg.ID]; !ok {
		return nil, model.NewStorageNotFound()
	}
	stored := *cfg
	r.configs[cfg.ID] = &stored
	return &stored, nil
}

func (r *fakeStorageRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	cfg, ok := r.configs[id]
	if !ok || cfg.UserID != userID {
		return model.NewStorageNotFound()
	}
	delete(r.configs, id)
	return nil
}

func (r *fakeStorageRepo) SetDefault(ctx context.Context, userID uuid.UUID, id string) error {
	cfg, ok := r.configs[id]
	if !ok || cfg.UserID != userID {
		return model.NewStorageNotFound()
	}
	r.clearDefault(userID)
	cfg.IsDefault = true
	return nil
}

func (r *fakeStorageRepo) clearDefault(userID uuid.UUID) {
	for _, cfg := range r.configs {
		if cfg.UserID == userID {
			cfg.IsDefault = false
		}
	}
}

func newStorageFixture(t *testing.T) (*fakeStorageRepo, ServiceInterface) {
	t.Helper()
	repo := newFakeStorageRepo()
	factory := storage.NewFactory(t.TempDir(), t.TempDir())
	return repo, NewStorageService(repo, factory)
}

func validMinIOConfig() map[string]interface{} {
	return map[string]interface{}{
		"bucket_name": "books",
		"endpoint":    "localhost:9000",
		"access_key":  "minio",
		"secret_key":  "minio123",
	}
}

func TestStorageCreateFilesystem(t *testing.T) {
	_, svc := newStorageFixture(t)
	userID := uuid.New()

	// FILE_SYSTEM không yêu cầu config key nào
	resp, err := svc.Create(context.Background(), userID, &model.StorageCreateRequest{
		StorageType: model.TypeFileSystem,
		IsDefault:   true,
	})
	require.NoError(t, err)

	assert.True(t, utils.ValidID(resp.ID))
	assert.Equal(t, model.TypeFileSystem, resp.StorageType)
	assert.True(t, resp.IsDefault)
}

func TestStorageCreateMinIO(t *testing.T) {
	_, svc := newStorageFixture(t)

	resp, err := svc.Create(context.Background(), uuid.New(), &model.StorageCreateRequest{
		StorageType: model.TypeMinIO,
		Config:      validMinIOConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypeMinIO, resp.StorageType)
	assert.False(t, resp.IsDefault)
}

func TestStorageCreateValidation(t *testing.T) {
	_, svc := newStorageFixture(t)
	userID := uuid.New()

	minioMissingSecret := validMinIOConfig()
	delete(minioMissingSecret, "secret_key")

	minioBadSecure := validMinIOConfig()
	minioBadSecure["secure"] = "yes"

	tests := []struct {
		name string
		req  *model.StorageCreateRequest
	}{
		{"empty type", &model.StorageCreateRequest{}},
		{"unknown type", &model.StorageCreateRequest{StorageType: "DROPBOX"}},
		{"minio missing fields", &model.StorageCreateRequest{
			StorageType: model.TypeMinIO,
			Config:      minioMissingSecret,
		}},
		{"minio nil config", &model.StorageCreateRequest{StorageType: model.TypeMinIO}},
		{"minio secure not bool", &model.StorageCreateRequest{
			StorageType: model.TypeMinIO,
			Config:      minioBadSecure,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.req)
			require.Error(t, err)

			status, _, _ := model.GetErrorResponse(err)
			assert.Equal(t, 400, status)
		})
	}
}

func TestStorageUpdateRevalidatesMergedShape(t *testing.T) {
	_, svc := newStorageFixture(t)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, &model.StorageCreateRequest{
		StorageType: model.TypeFileSystem,
	})
	require.NoError(t, err)

	// Đổi type sang MINIO mà không cung cấp config → merged shape invalid
	minioType := model.TypeMinIO
	_, err = svc.Update(context.Background(), userID, created.ID, &model.StorageUpdateRequest{
		StorageType: &minioType,
	})
	require.Error(t, err)

	// Cung cấp đủ config thì hợp lệ
	updated, err := svc.Update(context.Background(), userID, created.ID, &model.StorageUpdateRequest{
		StorageType: &minioType,
		Config:      validMinIOConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.TypeMinIO, updated.StorageType)
}

func TestStorageSetDefaultExclusive(t *testing.T) {
	_, svc := newStorageFixture(t)
	userID := uuid.New()

	first, err := svc.Create(context.Background(), userID, &model.StorageCreateRequest{
		StorageType: model.TypeFileSystem,
		IsDefault:   true,
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), userID, &model.StorageCreateRequest{
		StorageType: model.TypeMinIO,
		Config:      validMinIOConfig(),
	})
	require.NoError(t, err)

	promoted, err := svc.SetDefault(context.Background(), userID, second.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)

	demoted, err := svc.GetByID(context.Background(), userID, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsDefault, "only one default per user")
}

func TestStorageGetByIDScopedToOwner(t *testing.T) {
	_, svc := newStorageFixture(t)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, &model.StorageCreateRequest{
		StorageType: model.TypeFileSystem,
	})
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), uuid.New(), created.ID)
	require.Error(t, err)
	assert.True(t, model.IsStorageNotFound(err))
}

func TestResolveBackendNoDefaultFallsBackToFilesystem(t *testing.T) {
	_, svc := newStorageFixture(t)

	backend, err := svc.ResolveBackend(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, backend.IsLocal(), "no default config resolves to local filesystem")
}

func TestResolveBackendUsesDefaultConfig(t *testing.T) {
	_, svc := newStorageFixture(t)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, &model.StorageCreateRequest{
		StorageType: model.TypeFileSystem,
		IsDefault:   true,
	})
	require.NoError(t, err)

	backend, err := svc.ResolveBackend(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, backend.IsLocal())
}
