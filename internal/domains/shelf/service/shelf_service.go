package service

import (
	"context"
	"fmt"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/Eoic/Shelf/internal/domains/shelf/repository"
	"github.com/Eoic/Shelf/internal/shared/utils"
	"github.com/google/uuid"
)

type shelfService struct {
	repo repository.RepositoryInterface
}

// NewShelfService - Constructor with DI
func NewShelfService(repo repository.RepositoryInterface) ServiceInterface {
	return &shelfService{repo: repo}
}

func (s *shelfService) Create(ctx context.Context, userID uuid.UUID, req *model.ShelfCreateRequest) (*model.ShelfResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := utils.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate shelf id: %w", err)
	}

	shelf := &model.Shelf{
		ID:          id,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}

	created, err := s.repo.Create(ctx, shelf)
	if err != nil {
		return nil, err
	}

	return created.ToResponse(), nil
}

func (s *shelfService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.ShelfResponse, error) {
	shelf, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	return shelf.ToResponse(), nil
}

func (s *shelfService) List(ctx context.Context, userID uuid.UUID) (*model.ListShelvesResponse, error) {
	shelves, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*model.ShelfResponse, len(shelves))
	for i, shelf := range shelves {
		items[i] = shelf.ToResponse()
	}

	return &model.ListShelvesResponse{
		Total: len(items),
		Items: items,
	}, nil
}

func (s *shelfService) Update(ctx context.Context, userID uuid.UUID, id string, req *model.ShelfUpdateRequest) (*model.ShelfResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = req.Description
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	return updated.ToResponse(), nil
}

func (s *shelfService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *shelfService) AddBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	if !utils.ValidID(bookID) {
		return model.ErrBookNotFound
	}
	return s.repo.AddBook(ctx, userID, shelfID, bookID)
}

func (s *shelfService) RemoveBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	if !utils.ValidID(bookID) {
		return model.ErrBookNotFound
	}
	return s.repo.RemoveBook(ctx, userID, shelfID, bookID)
}
