package storage

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioConfig là shape của storage_configs.config cho MINIO backend
type minioConfig struct {
	BucketName string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Secure     bool
}

// minioConfigFrom validate config map từ storage_configs row.
// Required: bucket_name, endpoint, access_key, secret_key.
// Optional: secure (default false - local MinIO chạy không TLS).
func minioConfigFrom(config map[string]interface{}) (*minioConfig, error) {
	if config == nil {
		return nil, ErrBackendNotConfigured
	}

	stringField := func(key string) (string, bool) {
		raw, ok := config[key]
		if !ok {
			return "", false
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}

	bucket, ok := stringField("bucket_name")
	if !ok {
		return nil, ErrBackendNotConfigured
	}
	endpoint, ok := stringField("endpoint")
	if !ok {
		return nil, ErrBackendNotConfigured
	}
	accessKey, ok := stringField("access_key")
	if !ok {
		return nil, ErrBackendNotConfigured
	}
	secretKey, ok := stringField("secret_key")
	if !ok {
		return nil, ErrBackendNotConfigured
	}

	secure := false
	if raw, ok := config["secure"]; ok {
		if b, ok := raw.(bool); ok {
			secure = b
		}
	}

	return &minioConfig{
		BucketName: bucket,
		Endpoint:   endpoint,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		Secure:     secure,
	}, nil
}

// MinIOBackend lưu files trong một MinIO/S3 bucket
type MinIOBackend struct {
	client  *minio.Client
	bucket  string
	tempDir string // nơi Fetch materialize temp copies
}

// NewMinIOBackend khởi tạo MinIO client và đảm bảo bucket tồn tại
func NewMinIOBackend(ctx context.Context, cfg *minioConfig, tempDir string) (*MinIOBackend, error) {
	// Tạo MinIO client với credentials
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure, // false cho local, true cho production
	})
	if err != nil {
		return nil, NewBackendUnavailable(err)
	}

	// Kiểm tra bucket có tồn tại không, nếu không thì tạo mới
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, NewBackendUnavailable(err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, NewBackendUnavailable(err)
		}
	}

	return &MinIOBackend{
		client:  client,
		bucket:  cfg.BucketName,
		tempDir: tempDir,
	}, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Store upload file từ sourcePath lên bucket.
// FPutObject stream từ disk, không load toàn bộ file vào memory.
func (b *MinIOBackend) Store(ctx context.Context, sourcePath, owner, contentKey, filename string, kind FileKind) (string, error) {
	key := objectKey(owner, contentKey, filename, kind)

	_, err := b.client.FPutObject(ctx, b.bucket, key, sourcePath, minio.PutObjectOptions{
		ContentType: contentTypeFor(filename),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}

	return key, nil
}

// Fetch download object về temp file và trả về path.
// Caller chịu trách nhiệm xóa temp file sau khi dùng (IsLocal = false).
func (b *MinIOBackend) Fetch(ctx context.Context, owner, contentKey, filename string, kind FileKind) (string, error) {
	key := objectKey(owner, contentKey, filename, kind)
	dest := filepath.Join(b.tempDir, uuid.New().String()+"_"+filename)

	if err := b.client.FGetObject(ctx, b.bucket, key, dest, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return "", fmt.Errorf("failed to download object %s: %w", key, err)
	}

	return dest, nil
}

// Delete xóa object khỏi bucket. Object không tồn tại → (false, nil)
func (b *MinIOBackend) Delete(ctx context.Context, owner, contentKey, filename string, kind FileKind) (bool, error) {
	key := objectKey(owner, contentKey, filename, kind)

	// StatObject trước để phân biệt missing object và delete error
	_, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return true, nil
}

func (b *MinIOBackend) IsLocal() bool {
	return false
}
