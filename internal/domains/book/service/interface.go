package service

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/Eoic/Shelf/internal/shared"
)

// FileDelivery trỏ tới một local file sẵn sàng để stream về client.
// Cleanup = true nghĩa là path là temp copy từ remote backend,
// handler phải xóa sau khi response ghi xong.
type FileDelivery struct {
	Path      string
	Filename  string
	MediaType string
	Cleanup   bool
}

// ServiceInterface - Định nghĩa business logic methods
type ServiceInterface interface {
	// UploadBook accept file, tạo placeholder record (queued) và enqueue
	// ingestion task. Trả về ngay, không chờ pipeline chạy.
	UploadBook(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*model.BookUploadQueuedResponse, error)
	ListBooks(ctx context.Context, userID uuid.UUID, req model.ListBooksRequest) (*model.ListBooksResponse, error)
	GetBook(ctx context.Context, userID uuid.UUID, id string) (*model.BookResponse, error)
	UpdateBook(ctx context.Context, userID uuid.UUID, id string, req model.BookUpdateRequest) (*model.BookResponse, error)
	// DeleteBook giải phóng storage trước rồi mới xóa row.
	// Xóa file fail → abort, row giữ nguyên.
	DeleteBook(ctx context.Context, userID uuid.UUID, id string) error
	// GetStatus đọc trực tiếp từ database - polling endpoint không cache
	GetStatus(ctx context.Context, userID uuid.UUID, id string) (*model.BookStatusResponse, error)
	ResolveBookFile(ctx context.Context, userID uuid.UUID, id string) (*FileDelivery, error)
	ResolveCover(ctx context.Context, userID uuid.UUID, id, variant string) (*FileDelivery, error)
	ExportBooksToExcel(ctx context.Context, userID uuid.UUID) (*excelize.File, error)
}

// IngestServiceInterface - synchronous entry point của ingestion pipeline.
// Worker job handler gọi Ingest và tự quyết định swallow error hay không.
type IngestServiceInterface interface {
	Ingest(ctx context.Context, payload shared.IngestBookPayload) error
}
