package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/Eoic/Shelf/internal/domains/book/repository"
	storageService "github.com/Eoic/Shelf/internal/domains/storage/service"
	"github.com/Eoic/Shelf/internal/infrastructure/parser"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/internal/shared"
	"github.com/Eoic/Shelf/internal/shared/utils"
	"github.com/Eoic/Shelf/pkg/cache"
)

// IngestService chạy pipeline biến temp upload thành completed book record:
//
//	hash -> dedupe -> detect format -> parse -> resolve backend ->
//	store file -> derive covers -> finalize
//
// Chạy trong worker process. Mọi input đi qua IngestBookPayload - không giữ
// reference nào tới request context đã accept upload.
type IngestService struct {
	repo           repository.RepositoryInterface
	storage        storageService.ServiceInterface
	coverProcessor *storage.CoverProcessor
	cache          cache.Cache
}

func NewIngestService(
	repo repository.RepositoryInterface,
	storage storageService.ServiceInterface,
	coverProcessor *storage.CoverProcessor,
	cache cache.Cache,
) IngestServiceInterface {
	return &IngestService{
		repo:           repo,
		storage:        storage,
		coverProcessor: coverProcessor,
		cache:          cache,
	}
}

// Ingest - Synchronous entry point. Mọi failure đều được ghi vào row
// (status=failed + processing_error) trước khi propagate; caller phía
// background chỉ cần log và return.
func (s *IngestService) Ingest(ctx context.Context, p shared.IngestBookPayload) error {
	// Temp upload không bao giờ sống sót qua pipeline, bất kể outcome
	defer func() {
		if err := os.Remove(p.TempPath); err != nil && !os.IsNotExist(err) {
			log.Error().Err(err).Str("temp_path", p.TempPath).Msg("Failed to remove temporary upload")
		}
	}()

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		s.recordFailure(ctx, p.BookID, fmt.Sprintf("Invalid user id in payload: %v", err))
		return fmt.Errorf("invalid user id %q: %w", p.UserID, err)
	}

	// queued -> processing. Row đã terminal hoặc đã bị xóa → không chạy lại.
	if err := s.repo.UpdateStatus(ctx, p.BookID, model.StatusProcessing, nil); err != nil {
		log.Warn().Err(err).Str("book_id", p.BookID).Msg("Ingestion skipped, record is not runnable")
		return nil
	}

	log.Info().
		Str("book_id", p.BookID).
		Str("filename", p.OriginalFilename).
		Msg("Ingestion started")

	if err := s.process(ctx, userID, p); err != nil {
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = model.FailureTimeout
		}
		s.recordFailure(ctx, p.BookID, message)
		s.invalidate(ctx, userID, p.BookID)
		return err
	}

	s.invalidate(ctx, userID, p.BookID)
	log.Info().Str("book_id", p.BookID).Msg("Ingestion completed")
	return nil
}

func (s *IngestService) process(ctx context.Context, userID uuid.UUID, p shared.IngestBookPayload) error {
	// ======================= 1. HASH & DEDUPE =======================
	fileHash, err := utils.FileDigest(p.TempPath)
	if err != nil {
		return err
	}

	// Advisory pre-check. Unique constraint trên file_hash là nguồn chân lý
	// cuối cùng - hai ingestion cùng content có thể cùng qua được check này.
	existing, err := s.repo.GetByContentHash(ctx, fileHash)
	if err != nil && !errors.Is(err, model.ErrBookNotFound) {
		return err
	}
	if existing != nil {
		log.Warn().
			Str("book_id", p.BookID).
			Str("existing_id", existing.ID).
			Str("file_hash", fileHash).
			Msg("Book with same content already exists")
		return errors.New(model.FailureDuplicate)
	}

	// ======================= 2. FORMAT DETECTION =======================
	format, ok := parser.DetectFormat(p.OriginalFilename)
	if !ok {
		log.Warn().Str("filename", p.OriginalFilename).Msg("Unsupported file format")
		return errors.New(model.FailureUnsupported)
	}

	// ======================= 3. METADATA EXTRACTION =======================
	bookParser := parser.ForFormat(format)
	meta := bookParser.ParseMetadata(p.TempPath)
	if meta.ParsingError != "" {
		// Non-fatal - tiếp tục với phần metadata thu được
		log.Warn().
			Str("book_id", p.BookID).
			Str("parsing_error", meta.ParsingError).
			Msg("Metadata parsing issue")
	}

	// ======================= 4. BACKEND RESOLUTION =======================
	backend, err := s.storage.ResolveBackend(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("book_id", p.BookID).Msg("Error getting storage backend")
		return err
	}

	// ======================= 5. STORE ORIGINAL FILE =======================
	stat, err := os.Stat(p.TempPath)
	if err != nil {
		return err
	}
	fileSize := stat.Size()

	owner := userID.String()
	storedFilename := uuid.New().String() + strings.ToLower(filepath.Ext(p.OriginalFilename))
	filePath, err := backend.Store(ctx, p.TempPath, owner, fileHash, storedFilename, storage.KindBook)
	if err != nil {
		return err
	}

	// ======================= 6. COVER DERIVATION =======================
	covers := s.deriveCovers(ctx, backend, bookParser, p, owner, fileHash)

	// ======================= 7. FINALIZE =======================
	book := buildBookRow(p, meta, format, covers, storedFilename, fileHash, filePath, fileSize)
	if err := s.repo.FinalizeIngestion(ctx, book); err != nil {
		if errors.Is(err, model.ErrDuplicateHash) {
			// Thua race với một ingestion khác cùng content: gỡ file vừa
			// store. Object keys scope theo owner, nên covers chỉ trùng với
			// bản của record thắng khi winner cùng user - winner khác user
			// thì covers ở namespace này thành mồ côi, phải gỡ luôn.
			if _, derr := backend.Delete(ctx, owner, fileHash, storedFilename, storage.KindBook); derr != nil {
				log.Error().Err(derr).Str("book_id", p.BookID).Msg("Failed to remove file after losing dedup race")
			}
			winner, werr := s.repo.GetByContentHash(ctx, fileHash)
			if werr != nil || winner.UserID != userID {
				for _, c := range covers {
					if _, derr := backend.Delete(ctx, owner, fileHash, c.Filename, storage.KindCover); derr != nil {
						log.Error().Err(derr).
							Str("book_id", p.BookID).
							Str("variant", c.Variant).
							Msg("Failed to remove cover after losing dedup race")
					}
				}
			}
			log.Warn().
				Str("book_id", p.BookID).
				Str("file_hash", fileHash).
				Msg("Duplicate content detected at persist time")
			return errors.New(model.FailureDuplicate)
		}
		return err
	}

	return nil
}

// deriveCovers extract cover bytes, render variants và ghi từng variant qua
// backend. Mọi lỗi ở đây đều non-fatal - book có thể tồn tại không cover.
func (s *IngestService) deriveCovers(ctx context.Context, backend storage.Backend, bookParser parser.Parser, p shared.IngestBookPayload, owner, fileHash string) []model.Cover {
	raw, _, err := bookParser.ExtractCover(p.TempPath)
	if err != nil {
		log.Warn().Err(err).Str("book_id", p.BookID).Msg("Could not extract cover image")
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	variants := s.coverProcessor.Derive(raw)

	covers := make([]model.Cover, 0, len(variants))
	for _, v := range variants {
		locator, err := storeVariant(ctx, backend, v, owner, fileHash)
		if err != nil {
			log.Warn().Err(err).
				Str("book_id", p.BookID).
				Str("variant", v.Name).
				Msg("Could not store cover variant")
			continue
		}
		covers = append(covers, model.Cover{
			Filename: v.Filename(),
			FilePath: locator,
			Variant:  v.Name,
		})
	}

	return covers
}

// storeVariant ghi variant bytes ra temp file rồi đẩy qua backend.
// Local temp copy luôn bị xóa sau khi store.
func storeVariant(ctx context.Context, backend storage.Backend, v storage.CoverVariant, owner, fileHash string) (string, error) {
	tmp, err := os.CreateTemp("", "cover-*.jpg")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(v.Data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return backend.Store(ctx, tmpPath, owner, fileHash, v.Filename(), storage.KindCover)
}

func buildBookRow(p shared.IngestBookPayload, meta *parser.Metadata, format string, covers []model.Cover, storedFilename, fileHash, filePath string, fileSize int64) *model.Book {
	// Title fallback: metadata title nếu parse được, không thì original filename
	title := meta.Title
	if title == "" {
		title = p.OriginalFilename
	}

	authors := make([]model.Author, len(meta.Authors))
	for i, a := range meta.Authors {
		authors[i] = model.Author{Name: a.Name, Role: a.Role}
	}

	identifiers := make([]model.Identifier, len(meta.Identifiers))
	for i, id := range meta.Identifiers {
		identifiers[i] = model.Identifier{Type: id.Type, Value: id.Value}
	}

	return &model.Book{
		ID:              p.BookID,
		Title:           title,
		Authors:         authors,
		Publisher:       strPtrOrNil(meta.Publisher),
		PublicationDate: strPtrOrNil(meta.PublicationDate),
		ISBN10:          strPtrOrNil(meta.ISBN10),
		ISBN13:          strPtrOrNil(meta.ISBN13),
		Language:        strPtrOrNil(meta.Language),
		SeriesName:      strPtrOrNil(meta.SeriesName),
		SeriesIndex:     meta.SeriesIndex,
		Description:     strPtrOrNil(meta.Description),
		Tags:            meta.Tags,
		Identifiers:     identifiers,
		Format:          &format,
		Covers:          covers,
		StoredFilename:  &storedFilename,
		FileHash:        &fileHash,
		FilePath:        &filePath,
		FileSizeBytes:   &fileSize,
	}
}

// recordFailure ghi terminal failed state với message. Guard trong repo
// đảm bảo không overwrite record đã terminal.
func (s *IngestService) recordFailure(ctx context.Context, bookID, message string) {
	if err := s.repo.UpdateStatus(ctx, bookID, model.StatusFailed, &message); err != nil {
		log.Error().Err(err).Str("book_id", bookID).Msg("Failed to record ingestion failure")
	}
}

// invalidate xóa cached detail + list của owner sau khi trạng thái đổi
func (s *IngestService) invalidate(ctx context.Context, userID uuid.UUID, bookID string) {
	if err := s.cache.Delete(ctx, model.GenerateBookDetailCacheKey(userID, bookID)); err != nil {
		log.Warn().Err(err).Str("book_id", bookID).Msg("Failed to invalidate detail cache")
	}
	if err := s.cache.DeletePattern(ctx, model.ListCachePattern(userID)); err != nil {
		log.Warn().Err(err).Str("book_id", bookID).Msg("Failed to invalidate list cache")
	}
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
