package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	bookService "github.com/Eoic/Shelf/internal/domains/book/service"
	"github.com/Eoic/Shelf/internal/shared"
)

// IngestBookHandler chạy ingestion pipeline cho một uploaded book
type IngestBookHandler struct {
	ingestService bookService.IngestServiceInterface
}

func NewIngestBookHandler(ingestService bookService.IngestServiceInterface) *IngestBookHandler {
	return &IngestBookHandler{
		ingestService: ingestService,
	}
}

// ProcessTask xử lý background job ingest book
func (h *IngestBookHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.IngestBookPayload

	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal IngestBook payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log.Info().
		Str("book_id", payload.BookID).
		Str("filename", payload.OriginalFilename).
		Msg("Ingesting uploaded book")

	// Pipeline tự ghi failure vào row (status + processing_error).
	// Không return error: retry sẽ chạy lại trên temp file đã bị xóa,
	// caller chỉ còn cách theo dõi qua status polling.
	if err := h.ingestService.Ingest(ctx, payload); err != nil {
		log.Error().
			Err(err).
			Str("book_id", payload.BookID).
			Msg("Book ingestion failed")
		return nil
	}

	log.Info().
		Str("book_id", payload.BookID).
		Msg("Book ingested successfully")

	return nil
}
