package repository

import (
	"context"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/google/uuid"
)

// RepositoryInterface - data access contract cho shelf domain
type RepositoryInterface interface {
	Create(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Shelf, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Shelf, error)
	Update(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error

	// Membership - AddBook trả ErrBookAlreadyOnShelf khi đã có,
	// RemoveBook trả ErrBookNotOnShelf khi vắng mặt
	AddBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error
	RemoveBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error
}
