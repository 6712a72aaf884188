package storage

import (
	"context"
	"path"
)

// FileKind phân loại file trong một book namespace
type FileKind int

const (
	// KindBook là file sách gốc: books/<owner>/<contentKey>/<filename>
	KindBook FileKind = iota
	// KindCover là cover variant: books/<owner>/<contentKey>/covers/<filename>
	KindCover
)

// Backend là contract chung cho mọi storage variant (filesystem, MinIO).
// Store đọc từ sourcePath trên local disk và ghi vào backend.
// Fetch trả về một local path đọc được: với remote backend đó là temp copy
// mà caller phải tự xóa sau khi dùng (check IsLocal).
type Backend interface {
	// Store ghi file từ sourcePath vào backend, trả về locator của object.
	// Ghi đè object đã tồn tại (idempotent), tự tạo parent scopes.
	Store(ctx context.Context, sourcePath, owner, contentKey, filename string, kind FileKind) (string, error)

	// Fetch trả về local path chứa nội dung object.
	Fetch(ctx context.Context, owner, contentKey, filename string, kind FileKind) (string, error)

	// Delete xóa object. Object không tồn tại → (false, nil), không phải error.
	Delete(ctx context.Context, owner, contentKey, filename string, kind FileKind) (bool, error)

	// IsLocal = true nghĩa là Fetch trả về path trong chính backend,
	// caller không được xóa nó.
	IsLocal() bool
}

// objectKey build key chuẩn cho object, dùng chung cho mọi backend.
// Forward slashes - filesystem backend convert sang OS separator khi cần.
func objectKey(owner, contentKey, filename string, kind FileKind) string {
	switch kind {
	case KindCover:
		return path.Join("books", owner, contentKey, "covers", filename)
	default:
		return path.Join("books", owner, contentKey, filename)
	}
}

// Storage type tags - closed set, persisted trong storage_configs.storage_type
const (
	TypeFileSystem = "FILE_SYSTEM"
	TypeMinIO      = "MINIO"
)

// Factory tạo Backend instances từ storage config rows
type Factory struct {
	libraryRoot string // root cho filesystem backend
	tempDir     string // nơi remote backends materialize temp copies
}

func NewFactory(libraryRoot, tempDir string) *Factory {
	return &Factory{
		libraryRoot: libraryRoot,
		tempDir:     tempDir,
	}
}

// TempDir trả về thư mục temp cho remote downloads
func (f *Factory) TempDir() string {
	return f.tempDir
}

// CreateBackend build Backend từ (storageType, config).
// - storageType không trong registry → ErrBackendNotFound
// - config thiếu required fields → ErrBackendNotConfigured
// - nil config với FILE_SYSTEM là hợp lệ (không cần key nào)
func (f *Factory) CreateBackend(ctx context.Context, storageType string, config map[string]interface{}) (Backend, error) {
	switch storageType {
	case TypeFileSystem:
		return NewFilesystemBackend(f.libraryRoot), nil

	case TypeMinIO:
		cfg, err := minioConfigFrom(config)
		if err != nil {
			return nil, err
		}
		return NewMinIOBackend(ctx, cfg, f.tempDir)

	default:
		return nil, ErrBackendNotFound
	}
}

// Default trả về backend mặc định khi user chưa có storage config nào
func (f *Factory) Default() Backend {
	return NewFilesystemBackend(f.libraryRoot)
}
