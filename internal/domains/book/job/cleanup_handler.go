package job

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/Eoic/Shelf/internal/domains/book/repository"
	"github.com/Eoic/Shelf/internal/shared"
)

const defaultCleanupAgeHours = 24

// SweepTempUploadsHandler xóa temp uploads bị bỏ lại quá lâu.
// Pipeline luôn tự dọn temp file của nó - sweep chỉ bắt các file mồ côi
// (worker crash giữa chừng, enqueue xong nhưng task mất).
type SweepTempUploadsHandler struct {
	tempDir string
}

func NewSweepTempUploadsHandler(tempDir string) *SweepTempUploadsHandler {
	return &SweepTempUploadsHandler{
		tempDir: tempDir,
	}
}

func (h *SweepTempUploadsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.SweepTempUploadsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal SweepTempUploads payload")
		return err
	}

	ageHours := payload.OlderThanHours
	if ageHours <= 0 {
		ageHours = defaultCleanupAgeHours
	}
	cutoff := time.Now().Add(-time.Duration(ageHours) * time.Hour)

	entries, err := os.ReadDir(h.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Error().Err(err).Str("temp_dir", h.tempDir).Msg("Failed to read temp upload dir")
		return err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(h.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove stale temp upload")
			continue
		}
		removed++
	}

	log.Info().
		Int("removed", removed).
		Time("cutoff", cutoff).
		Msg("Swept stale temp uploads")

	return nil
}

// FailStuckBooksHandler đánh dấu failed các record kẹt ở processing quá lâu
// (worker chết giữa pipeline). Không có row nào được phép ở processing mãi.
type FailStuckBooksHandler struct {
	bookRepo repository.RepositoryInterface
}

func NewFailStuckBooksHandler(bookRepo repository.RepositoryInterface) *FailStuckBooksHandler {
	return &FailStuckBooksHandler{
		bookRepo: bookRepo,
	}
}

func (h *FailStuckBooksHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.FailStuckBooksPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal FailStuckBooks payload")
		return err
	}

	ageHours := payload.OlderThanHours
	if ageHours <= 0 {
		ageHours = defaultCleanupAgeHours
	}
	cutoff := time.Now().Add(-time.Duration(ageHours) * time.Hour)

	failed, err := h.bookRepo.FailStuckProcessing(ctx, cutoff, model.FailureTimeout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fail stuck processing books")
		return err
	}

	if failed > 0 {
		log.Warn().
			Int64("failed", failed).
			Time("cutoff", cutoff).
			Msg("Marked stuck processing books as failed")
	}

	return nil
}
