package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/xuri/excelize/v2"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/Eoic/Shelf/internal/domains/book/repository"
	storageService "github.com/Eoic/Shelf/internal/domains/storage/service"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/internal/shared"
	"github.com/Eoic/Shelf/internal/shared/utils"
	"github.com/Eoic/Shelf/pkg/cache"
)

// ingestTaskTimeout bounds một lần chạy pipeline. Task chạy quá hạn bị cancel
// qua context, janitor đánh dấu row là failed sau đó.
const ingestTaskTimeout = 30 * time.Minute

// BookService - Implements ServiceInterface
type BookService struct {
	repo        repository.RepositoryInterface
	storage     storageService.ServiceInterface
	cache       cache.Cache
	asynqClient *asynq.Client
	tempDir     string
}

// NewService - Constructor with DI
func NewService(
	repo repository.RepositoryInterface,
	storage storageService.ServiceInterface,
	cache cache.Cache,
	asynqClient *asynq.Client,
	tempDir string,
) ServiceInterface {
	return &BookService{
		repo:        repo,
		storage:     storage,
		cache:       cache,
		asynqClient: asynqClient,
		tempDir:     tempDir,
	}
}

// UploadBook - Accept upload, tạo placeholder và enqueue ingestion.
// HTTP response trả về trước khi pipeline chạy.
func (s *BookService) UploadBook(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*model.BookUploadQueuedResponse, error) {
	// 1. Generate record ID
	bookID, err := utils.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate book id: %w", err)
	}

	// 2. Save bytes vào temp location, tên ngẫu nhiên tránh collision
	//    giữa các upload trùng filename
	tempPath := filepath.Join(s.tempDir, uuid.New().String()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := saveUploadedFile(file, tempPath); err != nil {
		return nil, fmt.Errorf("could not save uploaded file: %w", err)
	}

	// 3. Create placeholder record - title tạm thời là original filename,
	//    parser thay bằng metadata title khi ingestion xong
	book := &model.Book{
		ID:               bookID,
		UserID:           userID,
		Title:            file.Filename,
		OriginalFilename: &file.Filename,
		Status:           model.StatusQueued,
		UploadedAt:       time.Now(),
	}
	if err := s.repo.CreatePlaceholder(ctx, book); err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	// 4. Enqueue ingestion task. MaxRetry 0: pipeline tự record failure vào
	//    row, còn retry sẽ chạy lại trên temp file đã bị xóa.
	payload, err := json.Marshal(shared.IngestBookPayload{
		BookID:           bookID,
		UserID:           userID.String(),
		TempPath:         tempPath,
		OriginalFilename: file.Filename,
	})
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to marshal ingest payload: %w", err)
	}

	job := asynq.NewTask(shared.TypeIngestBook, payload)
	if _, err := s.asynqClient.Enqueue(job, asynq.Queue(shared.QueueDefault), asynq.MaxRetry(0), asynq.Timeout(ingestTaskTimeout)); err != nil {
		os.Remove(tempPath)
		msg := "Failed to queue ingestion"
		if uerr := s.repo.UpdateStatus(ctx, bookID, model.StatusFailed, &msg); uerr != nil {
			log.Printf("[Service] Failed to mark book %s as failed: %v", bookID, uerr)
		}
		return nil, fmt.Errorf("failed to enqueue ingestion task: %w", err)
	}

	// 5. Invalidate list cache
	if err := s.cache.DeletePattern(ctx, model.ListCachePattern(userID)); err != nil {
		log.Printf("[Service] Failed to invalidate list cache: %v", err)
	}

	return &model.BookUploadQueuedResponse{
		ID:     bookID,
		Title:  book.Title,
		Status: model.StatusQueued.String(),
	}, nil
}

// saveUploadedFile ghi multipart file xuống dest path
func saveUploadedFile(file *multipart.FileHeader, dest string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// ListBooks - Business logic for listing books
func (s *BookService) ListBooks(ctx context.Context, userID uuid.UUID, req model.ListBooksRequest) (*model.ListBooksResponse, error) {
	req.Normalize()

	// Try to get from cache first
	var cached model.ListBooksResponse
	cacheKey := model.GenerateCacheKey("books:list", userID, req)
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		return nil, err
	}
	if found {
		return &cached, nil
	}

	// Cache MISS - query database
	log.Printf("Cache MISS for key: %s", cacheKey)

	books, total, err := s.repo.List(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("list books error: %w", err)
	}

	items := make([]*model.BookResponse, len(books))
	for i := range books {
		items[i] = books[i].ToResponse()
	}

	result := &model.ListBooksResponse{
		Total: total,
		Items: items,
	}

	// Cache the result
	if err := s.cache.Set(ctx, cacheKey, result, 24*time.Hour); err != nil {
		log.Printf("Cache SET error for key %s: %v", cacheKey, err)
	}

	return result, nil
}

// GetBook - Detail lookup, cache-first. Worker invalidate key này khi
// ingestion đổi trạng thái nên cached record không bị stale.
func (s *BookService) GetBook(ctx context.Context, userID uuid.UUID, id string) (*model.BookResponse, error) {
	cacheKey := model.GenerateBookDetailCacheKey(userID, id)

	var cached model.BookResponse
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if found {
		return &cached, nil
	}
	if err != nil {
		log.Printf("[Service] Book detail cache error: %v", err)
	}

	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	resp := book.ToResponse()

	if err := s.cache.Set(ctx, cacheKey, resp, 24*time.Hour); err != nil {
		log.Printf("[Service] Failed to cache book detail: %v", err)
	}

	return resp, nil
}

// UpdateBook - Business logic for updating book metadata
func (s *BookService) UpdateBook(ctx context.Context, userID uuid.UUID, id string, req model.BookUpdateRequest) (*model.BookResponse, error) {
	// 1. Get existing book
	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// 2. Apply partial updates (nil field = giữ nguyên giá trị cũ)
	req.Apply(book)

	// 3. Save changes
	if err := s.repo.UpdateMetadata(ctx, book); err != nil {
		return nil, err
	}

	// 4. Invalidate cache
	cacheKey := model.GenerateBookDetailCacheKey(userID, id)
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		log.Printf("[Service] Failed to delete cache: %v", err)
	}
	if err := s.cache.DeletePattern(ctx, model.ListCachePattern(userID)); err != nil {
		log.Printf("[Service] Failed to invalidate list cache: %v", err)
	}

	// 5. Return updated detail (modified_at set server-side trong repo)
	return s.GetBook(ctx, userID, id)
}

// DeleteBook - Xóa record và files. Thứ tự cố định: storage trước, row sau.
// Nếu xóa file fail thì abort và giữ nguyên row - tránh orphan files
// không còn record nào trỏ tới.
func (s *BookService) DeleteBook(ctx context.Context, userID uuid.UUID, id string) error {
	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	// 1. Free storage first. Record chưa từng completed thì không có file nào.
	if book.FileHash != nil {
		backend, err := s.storage.ResolveBackend(ctx, userID)
		if err != nil {
			return err
		}

		owner := userID.String()
		if book.StoredFilename != nil {
			if _, err := backend.Delete(ctx, owner, *book.FileHash, *book.StoredFilename, storage.KindBook); err != nil {
				return fmt.Errorf("failed to delete book file: %w", err)
			}
		}
		for _, cover := range book.Covers {
			if _, err := backend.Delete(ctx, owner, *book.FileHash, cover.Filename, storage.KindCover); err != nil {
				return fmt.Errorf("failed to delete cover file: %w", err)
			}
		}
	}

	// 2. Delete row (kèm shelf memberships trong cùng transaction)
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	// 3. Invalidate cache
	if err := s.cache.Delete(ctx, model.GenerateBookDetailCacheKey(userID, id)); err != nil {
		log.Printf("[Service] Failed to delete cache: %v", err)
	}
	if err := s.cache.DeletePattern(ctx, model.ListCachePattern(userID)); err != nil {
		log.Printf("[Service] Failed to invalidate list cache: %v", err)
	}

	return nil
}

// GetStatus - Polling endpoint đọc thẳng database, không qua cache
func (s *BookService) GetStatus(ctx context.Context, userID uuid.UUID, id string) (*model.BookStatusResponse, error) {
	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return &model.BookStatusResponse{
		Status:          book.Status.String(),
		ProcessingError: book.ProcessingError,
	}, nil
}

// ResolveBookFile - Resolve original file về một local path để stream.
// Remote backend → temp copy, handler xóa sau khi response xong (Cleanup).
func (s *BookService) ResolveBookFile(ctx context.Context, userID uuid.UUID, id string) (*FileDelivery, error) {
	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !book.IsDownloadable() {
		return nil, model.ErrFileNotFound
	}

	backend, err := s.storage.ResolveBackend(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := backend.Fetch(ctx, userID.String(), *book.FileHash, *book.StoredFilename, storage.KindBook)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrFileNotFound
		}
		return nil, err
	}

	// Download dùng original filename, stored name chỉ là uuid nội bộ
	filename := *book.StoredFilename
	if book.OriginalFilename != nil {
		filename = *book.OriginalFilename
	}

	return &FileDelivery{
		Path:      path,
		Filename:  filename,
		MediaType: mediaTypeForFormat(book.Format),
		Cleanup:   !backend.IsLocal(),
	}, nil
}

// ResolveCover - Resolve một cover variant về local path
func (s *BookService) ResolveCover(ctx context.Context, userID uuid.UUID, id, variant string) (*FileDelivery, error) {
	book, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if variant == "" {
		variant = storage.VariantOriginal
	}

	cover := book.CoverVariant(variant)
	if cover == nil || book.FileHash == nil {
		return nil, model.ErrCoverNotFound
	}

	backend, err := s.storage.ResolveBackend(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := backend.Fetch(ctx, userID.String(), *book.FileHash, cover.Filename, storage.KindCover)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, model.ErrCoverNotFound
		}
		return nil, err
	}

	return &FileDelivery{
		Path:      path,
		Filename:  cover.Filename,
		MediaType: "image/jpeg",
		Cleanup:   !backend.IsLocal(),
	}, nil
}

// mediaTypeForFormat map format tag sang Content-Type cho download response
func mediaTypeForFormat(format *string) string {
	if format == nil {
		return "application/octet-stream"
	}
	switch *format {
	case model.FormatEPUB:
		return "application/epub+zip"
	case model.FormatPDF:
		return "application/pdf"
	case model.FormatMobiAZW:
		return "application/x-mobipocket-ebook"
	default:
		return "application/octet-stream"
	}
}

// ====================== EXPORT BOOKS SERVICE ==============================

func (s *BookService) ExportBooksToExcel(ctx context.Context, userID uuid.UUID) (*excelize.File, error) {
	// 1. Lấy toàn bộ library của user, không phân trang
	books, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	// 2. Tạo file Excel bằng excelize
	f, err := s.buildBooksExcelFile(books)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}

	return f, nil
}

func (s *BookService) buildBooksExcelFile(books []model.Book) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "Library"
	// Rename default sheet
	f.SetSheetName("Sheet1", sheetName)

	// Row 1: Header
	headers := []string{
		"ID",
		"Title",
		"Authors",
		"Publisher",
		"Publication Date",
		"ISBN-10",
		"ISBN-13",
		"Language",
		"Series",
		"Series Index",
		"Tags",
		"Format",
		"File Size (bytes)",
		"Status",
		"Original Filename",
		"Uploaded At",
	}

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1) // (col, row=1)
		f.SetCellValue(sheetName, cell, header)
	}

	// Optional: style header (bold)
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", "P1", headerStyle)
	}

	// Data rows, bắt đầu từ row 2
	for i, b := range books {
		rowNum := i + 2

		// Helpers
		rowStr := func(col int) string {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			return cell
		}

		// ID
		f.SetCellValue(sheetName, rowStr(1), b.ID)
		// Title
		f.SetCellValue(sheetName, rowStr(2), b.Title)

		// Authors (join by ;)
		names := make([]string, len(b.Authors))
		for j, a := range b.Authors {
			names[j] = a.Name
		}
		f.SetCellValue(sheetName, rowStr(3), strings.Join(names, "; "))

		// Publisher
		if b.Publisher != nil {
			f.SetCellValue(sheetName, rowStr(4), *b.Publisher)
		} else {
			f.SetCellValue(sheetName, rowStr(4), nil)
		}

		// Publication Date
		if b.PublicationDate != nil {
			f.SetCellValue(sheetName, rowStr(5), *b.PublicationDate)
		} else {
			f.SetCellValue(sheetName, rowStr(5), nil)
		}

		// ISBN-10
		if b.ISBN10 != nil {
			f.SetCellValue(sheetName, rowStr(6), *b.ISBN10)
		} else {
			f.SetCellValue(sheetName, rowStr(6), nil)
		}

		// ISBN-13
		if b.ISBN13 != nil {
			f.SetCellValue(sheetName, rowStr(7), *b.ISBN13)
		} else {
			f.SetCellValue(sheetName, rowStr(7), nil)
		}

		// Language
		if b.Language != nil {
			f.SetCellValue(sheetName, rowStr(8), *b.Language)
		} else {
			f.SetCellValue(sheetName, rowStr(8), nil)
		}

		// Series
		if b.SeriesName != nil {
			f.SetCellValue(sheetName, rowStr(9), *b.SeriesName)
		} else {
			f.SetCellValue(sheetName, rowStr(9), nil)
		}

		// Series Index
		if b.SeriesIndex != nil {
			f.SetCellValue(sheetName, rowStr(10), *b.SeriesIndex)
		} else {
			f.SetCellValue(sheetName, rowStr(10), nil)
		}

		// Tags (join by |)
		if len(b.Tags) > 0 {
			f.SetCellValue(sheetName, rowStr(11), strings.Join(b.Tags, "|"))
		} else {
			f.SetCellValue(sheetName, rowStr(11), "")
		}

		// Format
		if b.Format != nil {
			f.SetCellValue(sheetName, rowStr(12), *b.Format)
		} else {
			f.SetCellValue(sheetName, rowStr(12), nil)
		}

		// File Size
		if b.FileSizeBytes != nil {
			f.SetCellValue(sheetName, rowStr(13), *b.FileSizeBytes)
		} else {
			f.SetCellValue(sheetName, rowStr(13), nil)
		}

		// Status
		f.SetCellValue(sheetName, rowStr(14), b.Status.String())

		// Original Filename
		if b.OriginalFilename != nil {
			f.SetCellValue(sheetName, rowStr(15), *b.OriginalFilename)
		} else {
			f.SetCellValue(sheetName, rowStr(15), nil)
		}

		// Uploaded At (YYYY-MM-DD HH:MM:SS)
		f.SetCellValue(sheetName, rowStr(16), b.UploadedAt.Format("2006-01-02 15:04:05"))
	}

	// Optional: auto width
	if err := f.SetColWidth(sheetName, "A", "P", 18); err != nil {
		// ignore error
	}

	return f, nil
}
