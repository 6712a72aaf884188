package model

import (
	"time"

	"github.com/google/uuid"
)

// Shelf - named collection của books, scoped theo owner.
// Quan hệ many-to-many với books qua bảng shelf_books.
type Shelf struct {
	ID          string    `json:"id" db:"id"`
	UserID      uuid.UUID `json:"-" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`

	// BookIDs - membership hiện tại, populate khi load detail
	BookIDs []string `json:"book_ids" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ToResponse converts Shelf to ShelfResponse
func (s *Shelf) ToResponse() *ShelfResponse {
	bookIDs := s.BookIDs
	if bookIDs == nil {
		bookIDs = []string{}
	}
	return &ShelfResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		BookIDs:     bookIDs,
		BookCount:   len(bookIDs),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
