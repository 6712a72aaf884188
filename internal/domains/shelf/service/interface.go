package service

import (
	"context"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/google/uuid"
)

// ServiceInterface - business logic contract cho shelf domain
type ServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, req *model.ShelfCreateRequest) (*model.ShelfResponse, error)
	GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.ShelfResponse, error)
	List(ctx context.Context, userID uuid.UUID) (*model.ListShelvesResponse, error)
	Update(ctx context.Context, userID uuid.UUID, id string, req *model.ShelfUpdateRequest) (*model.ShelfResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error

	AddBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error
	RemoveBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error
}
