package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// BookStatus represents lifecycle states của ingestion pipeline
type BookStatus string

const (
	StatusQueued     BookStatus = "queued"
	StatusProcessing BookStatus = "processing"
	StatusCompleted  BookStatus = "completed"
	StatusFailed     BookStatus = "failed"
)

func (s BookStatus) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal - completed và failed là immutable, pipeline không bao giờ
// transition ra khỏi chúng
func (s BookStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s BookStatus) String() string {
	return string(s)
}

// Processing failure messages persisted vào books.processing_error
const (
	FailureDuplicate   = "Duplicate book"
	FailureUnsupported = "Unsupported file format"
	FailureTimeout     = "Processing timed out"
)

// Format tags assigned during ingestion
const (
	FormatEPUB    = "EPUB"
	FormatPDF     = "PDF"
	FormatMobiAZW = "MOBI/AZW"
)

// FormatValues - danh sách format hợp lệ cho validation.In
func FormatValues() []interface{} {
	return []interface{}{FormatEPUB, FormatPDF, FormatMobiAZW}
}

// Author là một entry trong ordered authors list (JSONB)
type Author struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Identifier là external identifier như ISBN, ASIN (JSONB)
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Cover mô tả một stored cover variant (JSONB)
type Cover struct {
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	Variant  string `json:"variant"`
}

// Book represents the main book entity
type Book struct {
	// Identity
	ID     string    `json:"id" db:"id"`
	UserID uuid.UUID `json:"-" db:"user_id"`

	// Metadata
	Title           string         `json:"title" db:"title"`
	Authors         []Author       `json:"authors" db:"authors"`
	Publisher       *string        `json:"publisher" db:"publisher"`
	PublicationDate *string        `json:"publication_date" db:"publication_date"`
	ISBN10          *string        `json:"isbn_10" db:"isbn_10"`
	ISBN13          *string        `json:"isbn_13" db:"isbn_13"`
	Language        *string        `json:"language" db:"language"`
	SeriesName      *string        `json:"series_name" db:"series_name"`
	SeriesIndex     *float64       `json:"series_index" db:"series_index"`
	Description     *string        `json:"description" db:"description"`
	Tags            pq.StringArray `json:"tags" db:"tags"`
	Identifiers     []Identifier   `json:"identifiers" db:"identifiers"`
	Format          *string        `json:"format" db:"format"`

	// Storage linkage
	Covers           []Cover `json:"covers" db:"covers"`
	OriginalFilename *string `json:"original_filename" db:"original_filename"`
	StoredFilename   *string `json:"stored_filename" db:"stored_filename"`
	FileHash         *string `json:"file_hash" db:"file_hash"`
	FilePath         *string `json:"file_path" db:"file_path"`
	FileSizeBytes    *int64  `json:"file_size_bytes" db:"file_size_bytes"`

	// Lifecycle
	Status          BookStatus `json:"status" db:"status"`
	ProcessingError *string    `json:"processing_error" db:"processing_error"`

	// Timestamps
	UploadedAt time.Time  `json:"uploaded_at" db:"uploaded_at"`
	ModifiedAt *time.Time `json:"modified_at" db:"modified_at"`
}

// HasCover kiểm tra book có ít nhất một cover variant
func (b *Book) HasCover() bool {
	return len(b.Covers) > 0
}

// CoverVariant tìm cover descriptor theo variant name
func (b *Book) CoverVariant(variant string) *Cover {
	for i := range b.Covers {
		if b.Covers[i].Variant == variant {
			return &b.Covers[i]
		}
	}
	return nil
}

// IsDownloadable - chỉ completed books có file để stream
func (b *Book) IsDownloadable() bool {
	return b.Status == StatusCompleted && b.FileHash != nil && b.StoredFilename != nil
}

// ToResponse converts Book to BookResponse
func (b *Book) ToResponse() *BookResponse {
	resp := &BookResponse{
		ID:               b.ID,
		Title:            b.Title,
		Authors:          b.Authors,
		Publisher:        b.Publisher,
		PublicationDate:  b.PublicationDate,
		ISBN10:           b.ISBN10,
		ISBN13:           b.ISBN13,
		Language:         b.Language,
		SeriesName:       b.SeriesName,
		SeriesIndex:      b.SeriesIndex,
		Description:      b.Description,
		Tags:             []string(b.Tags),
		Identifiers:      b.Identifiers,
		Format:           b.Format,
		Covers:           b.Covers,
		OriginalFilename: b.OriginalFilename,
		StoredFilename:   b.StoredFilename,
		FileHash:         b.FileHash,
		FileSizeBytes:    b.FileSizeBytes,
		Status:           string(b.Status),
		ProcessingError:  b.ProcessingError,
		UploadedAt:       b.UploadedAt,
		ModifiedAt:       b.ModifiedAt,
	}

	// URLs ổn định (relative) để response cache được theo record
	resp.DownloadURL = "/api/v1/books/" + b.ID + "/download"
	if b.HasCover() {
		coverURL := "/api/v1/books/" + b.ID + "/cover"
		resp.CoverURL = &coverURL
	}

	return resp
}
