package repository

import (
	"context"
	"time"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/google/uuid"
)

// RepositoryInterface - Định nghĩa data access methods
type RepositoryInterface interface {
	// CreatePlaceholder inserts a queued record trước khi ingestion chạy
	CreatePlaceholder(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Book, error)
	// GetByContentHash - dedup lookup, global (file_hash unique toàn hệ thống)
	GetByContentHash(ctx context.Context, hash string) (*model.Book, error)
	// UpdateMetadata - user-editable metadata fields only
	UpdateMetadata(ctx context.Context, book *model.Book) error
	// FinalizeIngestion - single UPDATE ghi metadata + file linkage + completed.
	// Unique violation trên file_hash map về model.ErrDuplicateHash.
	FinalizeIngestion(ctx context.Context, book *model.Book) error
	// UpdateStatus - guarded: terminal rows không bao giờ bị overwrite
	UpdateStatus(ctx context.Context, id string, status model.BookStatus, processingError *string) error
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	List(ctx context.Context, userID uuid.UUID, req model.ListBooksRequest) ([]model.Book, int, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]model.Book, error)
	// FailStuckProcessing - janitor: mark processing rows cũ hơn cutoff là failed
	FailStuckProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error)
}
