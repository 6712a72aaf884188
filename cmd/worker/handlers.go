package main

import (
	"github.com/hibiken/asynq"

	bookJob "github.com/Eoic/Shelf/internal/domains/book/job"
	"github.com/Eoic/Shelf/internal/shared"
	"github.com/Eoic/Shelf/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Ingestion pipeline
	ingestBook *bookJob.IngestBookHandler

	// Maintenance handlers
	sweepTempUploads *bookJob.SweepTempUploadsHandler
	failStuckBooks   *bookJob.FailStuckBooksHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		ingestBook: bookJob.NewIngestBookHandler(c.IngestService),

		sweepTempUploads: bookJob.NewSweepTempUploadsHandler(c.Config.Storage.TempDir),
		failStuckBooks:   bookJob.NewFailStuckBooksHandler(c.BookRepo),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Ingestion tasks
	mux.HandleFunc(shared.TypeIngestBook, h.ingestBook.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(shared.TypeSweepTempUploads, h.sweepTempUploads.ProcessTask)
	mux.HandleFunc(shared.TypeFailStuckBooks, h.failStuckBooks.ProcessTask)
}
