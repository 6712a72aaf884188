package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// =====================================================
// UPLOAD
// =====================================================

// BookUploadQueuedResponse - trả về ngay sau khi upload được accept,
// trước khi ingestion chạy
type BookUploadQueuedResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// =====================================================
// STATUS POLLING
// =====================================================

type BookStatusResponse struct {
	Status          string  `json:"status"`
	ProcessingError *string `json:"processing_error"`
}

// =====================================================
// BOOK DETAIL RESPONSE
// =====================================================

type BookResponse struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Authors          []Author     `json:"authors"`
	Publisher        *string      `json:"publisher"`
	PublicationDate  *string      `json:"publication_date"`
	ISBN10           *string      `json:"isbn_10"`
	ISBN13           *string      `json:"isbn_13"`
	Language         *string      `json:"language"`
	SeriesName       *string      `json:"series_name"`
	SeriesIndex      *float64     `json:"series_index"`
	Description      *string      `json:"description"`
	Tags             []string     `json:"tags"`
	Identifiers      []Identifier `json:"identifiers"`
	Format           *string      `json:"format"`
	Covers           []Cover      `json:"covers"`
	OriginalFilename *string      `json:"original_filename"`
	StoredFilename   *string      `json:"stored_filename"`
	FileHash         *string      `json:"file_hash"`
	FileSizeBytes    *int64       `json:"file_size_bytes"`
	DownloadURL      string       `json:"download_url"`
	CoverURL         *string      `json:"cover_url,omitempty"`
	Status           string       `json:"status"`
	ProcessingError  *string      `json:"processing_error"`
	UploadedAt       time.Time    `json:"uploaded_at"`
	ModifiedAt       *time.Time   `json:"modified_at"`
}

// =====================================================
// UPDATE METADATA REQUEST
// =====================================================

// BookUpdateRequest - user-editable metadata. Nil field = giữ nguyên giá trị cũ.
type BookUpdateRequest struct {
	Title           *string      `json:"title,omitempty"`
	Authors         []Author     `json:"authors,omitempty"`
	Publisher       *string      `json:"publisher,omitempty"`
	PublicationDate *string      `json:"publication_date,omitempty"`
	ISBN10          *string      `json:"isbn_10,omitempty"`
	ISBN13          *string      `json:"isbn_13,omitempty"`
	Language        *string      `json:"language,omitempty"`
	SeriesName      *string      `json:"series_name,omitempty"`
	SeriesIndex     *float64     `json:"series_index,omitempty"`
	Description     *string      `json:"description,omitempty"`
	Tags            []string     `json:"tags,omitempty"`
	Identifiers     []Identifier `json:"identifiers,omitempty"`
	Format          *string      `json:"format,omitempty"`
}

// Validate validates BookUpdateRequest
func (req BookUpdateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, 1024)),
		validation.Field(&req.ISBN10, validation.Length(0, 10)),
		validation.Field(&req.ISBN13, validation.Length(0, 13)),
		validation.Field(&req.Language, validation.Length(0, 64)),
		validation.Field(&req.Format, validation.In(FormatValues()...)),
	)
}

// Apply merges non-nil fields vào existing book
func (req *BookUpdateRequest) Apply(book *Book) {
	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Authors != nil {
		book.Authors = req.Authors
	}
	if req.Publisher != nil {
		book.Publisher = req.Publisher
	}
	if req.PublicationDate != nil {
		book.PublicationDate = req.PublicationDate
	}
	if req.ISBN10 != nil {
		book.ISBN10 = req.ISBN10
	}
	if req.ISBN13 != nil {
		book.ISBN13 = req.ISBN13
	}
	if req.Language != nil {
		book.Language = req.Language
	}
	if req.SeriesName != nil {
		book.SeriesName = req.SeriesName
	}
	if req.SeriesIndex != nil {
		book.SeriesIndex = req.SeriesIndex
	}
	if req.Description != nil {
		book.Description = req.Description
	}
	if req.Tags != nil {
		book.Tags = req.Tags
	}
	if req.Identifiers != nil {
		book.Identifiers = req.Identifiers
	}
	if req.Format != nil {
		book.Format = req.Format
	}
}

// =====================================================
// LIST BOOKS
// =====================================================

// ListBooksRequest - Query parameters
type ListBooksRequest struct {
	Skip  int    `form:"skip"`  // Offset
	Limit int    `form:"limit"` // Max 100
	Q     string `form:"q"`     // Free-text search over title/description
	Tag   string `form:"tag"`   // Filter by tag
}

// Normalize kẹp pagination về range hợp lệ
func (req *ListBooksRequest) Normalize() {
	if req.Skip < 0 {
		req.Skip = 0
	}
	if req.Limit < 1 {
		req.Limit = 10 // Default
	}
	if req.Limit > 100 {
		req.Limit = 100 // Cap at 100
	}
}

// ListBooksResponse - Wrapper response
type ListBooksResponse struct {
	Total int             `json:"total"`
	Items []*BookResponse `json:"items"`
}
