package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FilesystemBackend lưu files dưới một root directory trên local disk
type FilesystemBackend struct {
	root string
}

func NewFilesystemBackend(root string) *FilesystemBackend {
	return &FilesystemBackend{root: root}
}

func (b *FilesystemBackend) localPath(owner, contentKey, filename string, kind FileKind) string {
	return filepath.Join(b.root, filepath.FromSlash(objectKey(owner, contentKey, filename, kind)))
}

// Store copy file từ sourcePath vào library tree.
// Tự tạo parent directories, ghi đè file đã tồn tại.
func (b *FilesystemBackend) Store(ctx context.Context, sourcePath, owner, contentKey, filename string, kind FileKind) (string, error) {
	dest := b.localPath(owner, contentKey, filename, kind)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to flush file: %w", err)
	}

	return dest, nil
}

// Fetch trả về path trực tiếp trong library tree - không copy
func (b *FilesystemBackend) Fetch(ctx context.Context, owner, contentKey, filename string, kind FileKind) (string, error) {
	p := b.localPath(owner, contentKey, filename, kind)

	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrObjectNotFound, objectKey(owner, contentKey, filename, kind))
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return p, nil
}

// Delete xóa file. File không tồn tại → (false, nil)
func (b *FilesystemBackend) Delete(ctx context.Context, owner, contentKey, filename string, kind FileKind) (bool, error) {
	p := b.localPath(owner, contentKey, filename, kind)

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	// Dọn các thư mục rỗng còn lại của book namespace (covers/, hash dir).
	// Best effort - dừng khi gặp thư mục không rỗng.
	dir := filepath.Dir(p)
	for dir != b.root && len(dir) > len(b.root) {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}

	return true, nil
}

func (b *FilesystemBackend) IsLocal() bool {
	return true
}
